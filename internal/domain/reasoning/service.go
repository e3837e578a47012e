package reasoning

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ehr/copilot/internal/domain/retrieval"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 6

// Searcher is satisfied by *retrieval.Retriever.
type Searcher interface {
	Search(query string, k int) []retrieval.ScoredChunk
}

// Recorder receives engine outcomes; telemetry.Metrics implements it.
type Recorder interface {
	ObserveEngine(engine string)
	ObserveGenerativeFailure(reason string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEngine(string)            {}
func (nopRecorder) ObserveGenerativeFailure(string) {}

type Service struct {
	searcher   Searcher
	generator  Generator
	summarizer *Summarizer
	policy     Policy
	topK       int
	metrics    Recorder
	logger     zerolog.Logger
}

// NewService wires the reasoning pipeline. A nil generator sends every
// request straight to the rules engine.
func NewService(searcher Searcher, generator Generator, topK int, logger zerolog.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	p := DefaultPolicy()
	return &Service{
		searcher:   searcher,
		generator:  generator,
		summarizer: NewSummarizer(p),
		policy:     p,
		topK:       topK,
		metrics:    nopRecorder{},
		logger:     logger,
	}
}

// WithMetrics sets the outcome recorder.
func (s *Service) WithMetrics(r Recorder) *Service {
	if r != nil {
		s.metrics = r
	}
	return s
}

// Reason retrieves evidence, generates options and summarizes them. It does
// not fail: a generative failure resolves to the rules fallback.
func (s *Service) Reason(ctx context.Context, question string, facts []PatientFact) *ReasonResponse {
	if facts == nil {
		facts = []PatientFact{}
	}
	hits := s.searcher.Search(question, s.topK)

	engine := EngineModel
	var options []Option
	res := s.generate(ctx, question, facts, hits)
	if res.Failed() {
		reason := res.FailureReason()
		if reason == reasonDisabled {
			s.logger.Debug().Msg("generative backend disabled, using rules")
		} else {
			s.logger.Warn().Str("reason", reason).Msg("generative path failed, using rules fallback")
		}
		s.metrics.ObserveGenerativeFailure(failureKind(reason))
		engine = EngineRules
		options = s.policy.Fallback(question, facts, hits)
	} else {
		options = res.Options
	}
	if len(options) > s.policy.MaxOptions {
		options = options[:s.policy.MaxOptions]
	}
	s.metrics.ObserveEngine(string(engine))

	return &ReasonResponse{
		Question: question,
		Engine:   engine,
		Options:  options,
		Summary:  s.summarizer.Summarize(question, facts, options),
		Evidence: Evidence{Docs: hits, PatientSnippets: facts},
	}
}

func (s *Service) generate(ctx context.Context, question string, facts []PatientFact, hits []retrieval.ScoredChunk) Result {
	if s.generator == nil {
		return Failure(reasonDisabled)
	}
	return s.generator.Generate(ctx, question, facts, hits)
}

// failureKind collapses a failure reason to a low-cardinality metric label.
func failureKind(reason string) string {
	switch {
	case reason == reasonDisabled:
		return "disabled"
	case reason == reasonEmpty:
		return "empty"
	case strings.HasPrefix(reason, "completion failed"):
		return "call"
	default:
		return "malformed"
	}
}
