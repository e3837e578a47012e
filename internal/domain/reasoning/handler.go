package reasoning

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reason", h.ReasonInfo)
	api.POST("/reason", h.Reason)
}

// ReasonInfo answers browser GETs with a usage hint.
func (h *Handler) ReasonInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"msg": "Use POST with body {question, patient_facts}",
	})
}

func (h *Handler) Reason(c echo.Context) error {
	var req ReasonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	resp := h.svc.Reason(c.Request().Context(), *req.Question, req.PatientFacts)
	return c.JSON(http.StatusOK, resp)
}
