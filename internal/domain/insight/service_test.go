package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/copilot/internal/platform/validation"
)

type fakeLiterature struct {
	refs  []Reference
	err   error
	calls int
	query string
	n     int
}

func (f *fakeLiterature) Search(_ context.Context, query string, n int) ([]Reference, error) {
	f.calls++
	f.query, f.n = query, n
	return f.refs, f.err
}

func TestService_Ask_Fracture(t *testing.T) {
	lit := &fakeLiterature{refs: []Reference{{Title: "t", Year: 2020, URL: "u"}}}
	svc := NewService(lit, zerolog.Nop())

	resp := svc.Ask(context.Background(), "Leg pain after a FALL", json.RawMessage(`{"dm":true}`))
	if len(resp.Options) != 1 || resp.Options[0].Title != "Order imaging and manage fracture" {
		t.Fatalf("unexpected options %+v", resp.Options)
	}
	if lit.query != fractureQuery || lit.n != 2 {
		t.Errorf("unexpected literature call %q/%d", lit.query, lit.n)
	}
	if len(resp.Options[0].Citations) != 1 {
		t.Errorf("expected literature citations, got %+v", resp.Options[0].Citations)
	}
	if string(resp.Evidence.PatientSnippets) != `{"dm":true}` {
		t.Errorf("unexpected snippets %s", resp.Evidence.PatientSnippets)
	}
}

func TestService_Ask_LiteratureFailure(t *testing.T) {
	svc := NewService(&fakeLiterature{err: errors.New("offline")}, zerolog.Nop())
	resp := svc.Ask(context.Background(), "leg pain, fall", nil)
	cites := resp.Options[0].Citations
	if cites == nil || len(cites) != 0 {
		t.Fatalf("expected empty citations, got %v", cites)
	}
	if string(resp.Evidence.PatientSnippets) != "[]" {
		t.Errorf("expected empty snippets, got %s", resp.Evidence.PatientSnippets)
	}
}

func TestService_Ask_NoMatch(t *testing.T) {
	lit := &fakeLiterature{}
	resp := NewService(lit, zerolog.Nop()).Ask(context.Background(), "leg pain", nil)
	if resp.Options[0].Title != "No matching clinical reasoning path" {
		t.Errorf("unexpected option %q", resp.Options[0].Title)
	}
	if lit.calls != 0 {
		t.Error("literature should not be queried")
	}
}

func TestHandler_AskText(t *testing.T) {
	e := echo.New()
	e.Validator = validation.New()
	h := NewHandler(NewService(&fakeLiterature{}, zerolog.Nop()))

	req := httptest.NewRequest(http.MethodPost, "/ask_text", strings.NewReader(`{"question":"cough","facts":[{"text":"x"}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.AskText(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp map[string]json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !strings.Contains(string(resp["evidence"]), `"patient_snippets":[{"text":"x"}]`) {
		t.Errorf("unexpected evidence %s", resp["evidence"])
	}

	req = httptest.NewRequest(http.MethodPost, "/ask_text", strings.NewReader(`{"facts":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	err := h.AskText(e.NewContext(req, rec))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
