package reasoning

import "github.com/ehr/copilot/internal/domain/retrieval"

// Engine names which generator produced the options of a response.
type Engine string

const (
	EngineModel Engine = "model"
	EngineRules Engine = "rules"
)

// PatientFact is an opaque caller-supplied fact.
type PatientFact struct {
	Text string `json:"text"`
}

// Option is one reasoning path offered to the clinician.
type Option struct {
	Title             string   `json:"title"`
	Rationale         string   `json:"rationale"`
	Steps             []string `json:"steps"`
	Risks             []string `json:"risks"`
	Contraindications []string `json:"contraindications"`
	Monitoring        []string `json:"monitoring"`
	Citations         []string `json:"citations"`
}

// Factors separates comorbidities that change management from those that
// were considered and set aside.
type Factors struct {
	Relevant []string `json:"relevant"`
	Ignored  []string `json:"ignored"`
}

// Summary is the structured clinical note derived for a request.
type Summary struct {
	Problem      string   `json:"problem"`
	Factors      Factors  `json:"factors"`
	Differential []string `json:"differential"`
	Diagnostics  []string `json:"diagnostics"`
	Treatment    []string `json:"treatment"`
	Disposition  []string `json:"disposition"`
	Counseling   []string `json:"counseling"`
	RedFlags     []string `json:"red_flags"`
	Notes        []string `json:"notes"`
	Citations    []string `json:"citations"`
}

// ReasonRequest is the payload of the reasoning endpoint.
type ReasonRequest struct {
	Question     *string       `json:"question" validate:"required"`
	PatientFacts []PatientFact `json:"patient_facts"`
}

// Evidence echoes what the options were derived from.
type Evidence struct {
	Docs            []retrieval.ScoredChunk `json:"docs"`
	PatientSnippets []PatientFact           `json:"patient_snippets"`
}

// ReasonResponse is the result of one reasoning pass.
type ReasonResponse struct {
	Question string   `json:"question"`
	Engine   Engine   `json:"engine"`
	Options  []Option `json:"options"`
	Summary  Summary  `json:"summary"`
	Evidence Evidence `json:"evidence"`
}
