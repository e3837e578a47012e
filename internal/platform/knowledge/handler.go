package knowledge

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	reindexer *Reindexer
}

func NewHandler(r *Reindexer) *Handler {
	return &Handler{reindexer: r}
}

func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/reindex", h.Reindex)
	admin.GET("/index", h.GetIndex)
}

func (h *Handler) Reindex(c echo.Context) error {
	stats, err := h.reindexer.Reload()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, h.reindexer.Current())
}
