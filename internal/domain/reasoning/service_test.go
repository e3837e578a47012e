package reasoning

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ehr/copilot/internal/domain/retrieval"
)

type fakeGenerator struct {
	result Result
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ []PatientFact, _ []retrieval.ScoredChunk) Result {
	f.calls++
	return f.result
}

type fakeRecorder struct {
	engines  []string
	failures []string
}

func (f *fakeRecorder) ObserveEngine(e string)            { f.engines = append(f.engines, e) }
func (f *fakeRecorder) ObserveGenerativeFailure(r string) { f.failures = append(f.failures, r) }

func newTestRetriever() *retrieval.Retriever {
	r := retrieval.NewRetriever()
	r.Index([]retrieval.Chunk{
		{Source: "cap.txt", Text: "fever cough pneumonia chest radiograph"},
		{Source: "acs.txt", Text: "chest pain troponin ecg"},
	})
	return r
}

func newTestService(gen Generator) (*Service, *fakeRecorder) {
	rec := &fakeRecorder{}
	svc := NewService(newTestRetriever(), gen, 0, zerolog.Nop()).WithMetrics(rec)
	return svc, rec
}

func TestService_ModelSuccess(t *testing.T) {
	gen := &fakeGenerator{result: Success([]Option{{Title: "model option", Steps: []string{"Step"}, Citations: []string{"cap.txt"}}})}
	svc, rec := newTestService(gen)

	resp := svc.Reason(context.Background(), "fever and cough", nil)
	if resp.Engine != EngineModel {
		t.Fatalf("expected model engine, got %s", resp.Engine)
	}
	if len(resp.Options) != 1 || resp.Options[0].Title != "model option" {
		t.Errorf("unexpected options %+v", resp.Options)
	}
	if resp.Summary.Diagnostics[0] != "Step" {
		t.Errorf("expected pulled step first, got %v", resp.Summary.Diagnostics)
	}
	if len(resp.Summary.Citations) != 1 || resp.Summary.Citations[0] != "cap.txt" {
		t.Errorf("unexpected summary citations %v", resp.Summary.Citations)
	}
	if len(resp.Evidence.Docs) == 0 || resp.Evidence.Docs[0].Source != "cap.txt" {
		t.Errorf("unexpected evidence %+v", resp.Evidence.Docs)
	}
	if resp.Evidence.PatientSnippets == nil {
		t.Error("expected non-nil patient snippets")
	}
	if len(rec.engines) != 1 || rec.engines[0] != "model" || len(rec.failures) != 0 {
		t.Errorf("unexpected metrics %+v", rec)
	}
}

func TestService_FallbackOnFailureOrEmpty(t *testing.T) {
	results := map[string]Result{
		"failure": Failure("completion failed: boom"),
		"empty":   Success([]Option{}),
		"nil":     Success(nil),
	}
	for name, r := range results {
		t.Run(name, func(t *testing.T) {
			svc, rec := newTestService(&fakeGenerator{result: r})
			q := "fever and cough"
			resp := svc.Reason(context.Background(), q, nil)
			if resp.Engine != EngineRules {
				t.Fatalf("expected rules engine, got %s", resp.Engine)
			}
			want := Fallback(q, nil, resp.Evidence.Docs)
			if len(resp.Options) != len(want) {
				t.Fatalf("expected %d options, got %d", len(want), len(resp.Options))
			}
			for i := range want {
				if resp.Options[i].Title != want[i].Title {
					t.Errorf("option %d: expected %q, got %q", i, want[i].Title, resp.Options[i].Title)
				}
			}
			if len(rec.failures) != 1 {
				t.Errorf("expected one recorded failure, got %v", rec.failures)
			}
		})
	}
}

func TestService_NilGenerator(t *testing.T) {
	svc, rec := newTestService(nil)
	resp := svc.Reason(context.Background(), "chest pain", []PatientFact{{Text: "eGFR 40"}})
	if resp.Engine != EngineRules {
		t.Fatalf("expected rules engine, got %s", resp.Engine)
	}
	if resp.Options[0].Title != "Rule out cardiac ischemia" {
		t.Errorf("unexpected first option %q", resp.Options[0].Title)
	}
	if resp.Options[0].Citations[0] != "acs.txt" {
		t.Errorf("expected acs.txt cited first, got %v", resp.Options[0].Citations)
	}
	if len(rec.failures) != 1 || rec.failures[0] != "disabled" {
		t.Errorf("unexpected failures %v", rec.failures)
	}
}

func TestService_CapsModelOptions(t *testing.T) {
	opts := []Option{{Title: "1"}, {Title: "2"}, {Title: "3"}, {Title: "4"}}
	svc, _ := newTestService(&fakeGenerator{result: Success(opts)})
	if got := len(svc.Reason(context.Background(), "q", nil).Options); got != 3 {
		t.Fatalf("expected 3 options, got %d", got)
	}
}

func TestService_EmptyIndex(t *testing.T) {
	svc := NewService(retrieval.NewRetriever(), nil, 6, zerolog.Nop())
	resp := svc.Reason(context.Background(), "", nil)
	if resp.Evidence.Docs == nil || len(resp.Evidence.Docs) != 0 {
		t.Errorf("expected empty docs, got %v", resp.Evidence.Docs)
	}
	if len(resp.Options) != 1 {
		t.Errorf("expected generic option, got %d", len(resp.Options))
	}
	if resp.Summary.Problem != "Current concern." {
		t.Errorf("unexpected problem %q", resp.Summary.Problem)
	}
}

func TestFailureKind(t *testing.T) {
	tests := map[string]string{
		reasonDisabled:             "disabled",
		reasonEmpty:                "empty",
		"completion failed: x":     "call",
		"model output is not JSON": "malformed",
	}
	for in, want := range tests {
		if got := failureKind(in); got != want {
			t.Errorf("failureKind(%q) = %q, want %q", in, got, want)
		}
	}
}
