package fhir

import "strings"

const unknownCondition = "Unknown condition"

type Problem struct {
	Resource       string  `json:"resource"`
	Code           string  `json:"code"`
	Onset          *string `json:"onset"`
	ClinicalStatus string  `json:"clinicalStatus"`
}

type Lab struct {
	Resource          string   `json:"resource"`
	Name              string   `json:"name"`
	Value             *float64 `json:"value"`
	Unit              *string  `json:"unit"`
	EffectiveDateTime *string  `json:"effectiveDateTime"`
}

type Med struct {
	Resource string `json:"resource"`
	Name     string `json:"name"`
	Dose     string `json:"dose"`
	When     string `json:"when"`
}

type Note struct {
	Resource string `json:"resource"`
	Text     string `json:"text"`
	Date     string `json:"date"`
}

// Flattened is a bundle reduced to the four lists the copilot reads.
type Flattened struct {
	Notes    []Note    `json:"notes"`
	Labs     []Lab     `json:"labs"`
	Meds     []Med     `json:"meds"`
	Problems []Problem `json:"problems"`
}

// Flatten maps the clinical entries of b. Unsupported resource types are
// ignored and notes without text are dropped.
func Flatten(b *Bundle) Flattened {
	out := Flattened{Notes: []Note{}, Labs: []Lab{}, Meds: []Med{}, Problems: []Problem{}}
	if b == nil {
		return out
	}
	for _, r := range b.Resources() {
		switch r.ResourceType {
		case "Condition":
			code := conceptText(r.Code)
			if code == "" {
				code = unknownCondition
			}
			out.Problems = append(out.Problems, Problem{
				Resource:       r.Reference(),
				Code:           code,
				Onset:          firstNonEmpty(r.OnsetDateTime, r.RecordedDate),
				ClinicalStatus: conceptText(r.ClinicalStatus),
			})

		case "Observation":
			lab := Lab{
				Resource:          r.Reference(),
				Name:              strings.TrimSpace(conceptText(r.Code)),
				EffectiveDateTime: firstNonEmpty(r.EffectiveDateTime, r.Issued),
			}
			if r.ValueQuantity != nil {
				lab.Value = r.ValueQuantity.Value
				lab.Unit = r.ValueQuantity.Unit
			}
			out.Labs = append(out.Labs, lab)

		case "MedicationStatement", "MedicationRequest":
			med := Med{
				Resource: r.Reference(),
				Name:     conceptText(r.MedicationCodeableConcept),
				When:     r.AuthoredOn,
			}
			if len(r.DosageInstruction) > 0 {
				med.Dose = r.DosageInstruction[0].Text
			}
			if med.When == "" && r.EffectivePeriod != nil {
				med.When = r.EffectivePeriod.Start
			}
			out.Meds = append(out.Meds, med)

		case "DocumentReference", "Composition":
			var text string
			if r.ResourceType == "Composition" {
				div := ""
				if r.Text != nil {
					div = NarrativeText(r.Text.Div)
				}
				text = strings.TrimSpace(r.Title + " " + div)
			} else {
				text = NarrativeText(r.Description)
			}
			if text == "" {
				continue
			}
			date := r.Date
			if date == "" {
				date = r.Created
			}
			out.Notes = append(out.Notes, Note{Resource: r.Reference(), Text: text, Date: date})
		}
	}
	return out
}

// Counts reports the size of each list.
func (f Flattened) Counts() map[string]int {
	return map[string]int{
		"notes":    len(f.Notes),
		"labs":     len(f.Labs),
		"meds":     len(f.Meds),
		"problems": len(f.Problems),
	}
}
