package insight

import "encoding/json"

// Reference is a literature hit attached to an option as a citation.
type Reference struct {
	Title string      `json:"title"`
	Year  interface{} `json:"year"`
	URL   string      `json:"url"`
}

type Option struct {
	Title             string      `json:"title"`
	Rationale         string      `json:"rationale"`
	Steps             []string    `json:"steps"`
	Risks             []string    `json:"risks"`
	Contraindications []string    `json:"contraindications"`
	Monitoring        []string    `json:"monitoring"`
	Citations         []Reference `json:"citations"`
}

type AskRequest struct {
	Question *string         `json:"question" validate:"required"`
	Facts    json.RawMessage `json:"facts,omitempty"`
}

type Evidence struct {
	PatientSnippets json.RawMessage `json:"patient_snippets"`
}

type AskResponse struct {
	Question string   `json:"question"`
	Options  []Option `json:"options"`
	Evidence Evidence `json:"evidence"`
}
