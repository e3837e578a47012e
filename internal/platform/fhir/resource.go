package fhir

// Resource carries the fields every FHIR resource shares.
type Resource struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
}

// Reference renders "Type/id" for the resource.
func (r Resource) Reference() string {
	return r.ResourceType + "/" + r.ID
}

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Quantity struct {
	Value *float64 `json:"value,omitempty"`
	Unit  *string  `json:"unit,omitempty"`
}

// Period keeps FHIR dateTime values as strings; partial dates are valid FHIR.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Narrative is the XHTML text element of a resource.
type Narrative struct {
	Status string `json:"status,omitempty"`
	Div    string `json:"div,omitempty"`
}

type Dosage struct {
	Text string `json:"text,omitempty"`
}

// ClinicalResource is the union of the fields read from Condition,
// Observation, MedicationStatement, MedicationRequest, DocumentReference and
// Composition entries.
type ClinicalResource struct {
	Resource

	Code           *CodeableConcept `json:"code,omitempty"`
	ClinicalStatus *CodeableConcept `json:"clinicalStatus,omitempty"`
	OnsetDateTime  string           `json:"onsetDateTime,omitempty"`
	RecordedDate   string           `json:"recordedDate,omitempty"`

	ValueQuantity     *Quantity `json:"valueQuantity,omitempty"`
	EffectiveDateTime string    `json:"effectiveDateTime,omitempty"`
	Issued            string    `json:"issued,omitempty"`

	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	DosageInstruction         []Dosage         `json:"dosageInstruction,omitempty"`
	AuthoredOn                string           `json:"authoredOn,omitempty"`
	EffectivePeriod           *Period          `json:"effectivePeriod,omitempty"`

	Title       string     `json:"title,omitempty"`
	Text        *Narrative `json:"text,omitempty"`
	Description string     `json:"description,omitempty"`
	Date        string     `json:"date,omitempty"`
	Created     string     `json:"created,omitempty"`
}

func conceptText(c *CodeableConcept) string {
	if c == nil {
		return ""
	}
	return c.Text
}

// firstNonEmpty returns the first non-empty value, or nil when all are empty.
func firstNonEmpty(vals ...string) *string {
	for _, v := range vals {
		if v != "" {
			s := v
			return &s
		}
	}
	return nil
}
