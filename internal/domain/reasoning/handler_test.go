package reasoning

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/copilot/internal/platform/validation"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := NewService(newTestRetriever(), nil, 6, zerolog.Nop())
	e := echo.New()
	e.Validator = validation.New()
	return NewHandler(svc), e
}

func TestHandler_Reason(t *testing.T) {
	h, e := newTestHandler()

	body := `{"question":"patient has fever and cough","patient_facts":[{"text":"Type 2 diabetes"}]}`
	req := httptest.NewRequest(http.MethodPost, "/reason", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Reason(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, k := range []string{"question", "engine", "options", "summary", "evidence"} {
		if _, ok := resp[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	var engine string
	json.Unmarshal(resp["engine"], &engine)
	if engine != "rules" {
		t.Errorf("expected rules, got %s", engine)
	}
	var summary map[string]json.RawMessage
	json.Unmarshal(resp["summary"], &summary)
	if _, ok := summary["red_flags"]; !ok {
		t.Error("expected red_flags in summary")
	}
	var evidence map[string]json.RawMessage
	json.Unmarshal(resp["evidence"], &evidence)
	if _, ok := evidence["patient_snippets"]; !ok {
		t.Error("expected patient_snippets in evidence")
	}
}

func TestHandler_Reason_MissingQuestion(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/reason", strings.NewReader(`{"patient_facts":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Reason(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_Reason_BadJSON(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/reason", strings.NewReader(`{"question":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Reason(c); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestHandler_ReasonInfo(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/reason", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ReasonInfo(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Use POST") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group(""))

	req := httptest.NewRequest(http.MethodPost, "/reason", strings.NewReader(`{"question":"chest pain"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
