package patient

import (
	"encoding/json"
	"time"

	"github.com/ehr/copilot/internal/platform/fhir"
)

// Record is the flattened clinical data held for one patient.
type Record struct {
	PatientID string `json:"patient_id"`
	fhir.Flattened
	UpdatedAt time.Time `json:"updated_at"`
}

type IngestRequest struct {
	PatientID string          `json:"patient_id" validate:"required"`
	Bundle    json.RawMessage `json:"bundle" validate:"required"`
}

type IngestResponse struct {
	Ingested  bool           `json:"ingested"`
	PatientID string         `json:"patient_id"`
	Counts    map[string]int `json:"counts"`
}
