package insight

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
)

const (
	fractureQuery = "diabetes delayed bone healing"
	fractureRefs  = 2
)

var fractureOption = Option{
	Title: "Order imaging and manage fracture",
	Rationale: "Patient reports leg pain after a fall. " +
		"Has diabetes, which may delay healing and increase infection risk. " +
		"Rod in hand means MRI is contraindicated — X-ray or CT is preferred.",
	Steps: []string{
		"Order X-Ray or CT of affected leg",
		"Stabilize leg and restrict weight-bearing activity",
		"Refer to orthopedics",
	},
	Risks:             []string{"Delayed bone healing due to diabetes", "Higher infection risk"},
	Contraindications: []string{"Avoid MRI (metal rod in hand)"},
	Monitoring:        []string{"Monitor healing progress and signs of infection"},
}

var noMatchOption = Option{
	Title:             "No matching clinical reasoning path",
	Rationale:         "Query does not match any predefined patterns.",
	Steps:             []string{},
	Risks:             []string{},
	Contraindications: []string{},
	Monitoring:        []string{},
	Citations:         []Reference{},
}

// Service answers the fixed-pattern text questions.
type Service struct {
	literature Literature
	logger     zerolog.Logger
}

func NewService(lit Literature, logger zerolog.Logger) *Service {
	return &Service{literature: lit, logger: logger}
}

func (s *Service) Ask(ctx context.Context, question string, facts json.RawMessage) *AskResponse {
	if len(facts) == 0 || string(facts) == "null" {
		facts = json.RawMessage("[]")
	}
	q := strings.ToLower(question)

	opt := noMatchOption
	if strings.Contains(q, "leg pain") && strings.Contains(q, "fall") {
		opt = fractureOption
		opt.Citations = s.references(ctx)
	}
	return &AskResponse{
		Question: question,
		Options:  []Option{opt},
		Evidence: Evidence{PatientSnippets: facts},
	}
}

func (s *Service) references(ctx context.Context) []Reference {
	if s.literature == nil {
		return []Reference{}
	}
	refs, err := s.literature.Search(ctx, fractureQuery, fractureRefs)
	if err != nil {
		s.logger.Warn().Err(err).Msg("literature lookup failed")
		return []Reference{}
	}
	return refs
}
