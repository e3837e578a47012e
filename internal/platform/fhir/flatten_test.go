package fhir

import "testing"

const sampleBundle = `{
  "resourceType": "Bundle",
  "type": "collection",
  "entry": [
    {"resource": {"resourceType": "Condition", "id": "c1",
      "code": {"text": "Type 2 diabetes"}, "onsetDateTime": "2015-03-01",
      "clinicalStatus": {"text": "active"}}},
    {"resource": {"resourceType": "Condition", "id": "c2", "recordedDate": "2020-01-01"}},
    {"resource": {"resourceType": "Observation", "id": "o1",
      "code": {"text": " eGFR "}, "valueQuantity": {"value": 42, "unit": "mL/min"},
      "issued": "2024-05-01T10:00:00Z"}},
    {"resource": {"resourceType": "Observation", "id": "o2"}},
    {"resource": {"resourceType": "MedicationRequest", "id": "m1",
      "medicationCodeableConcept": {"text": "Metformin"},
      "dosageInstruction": [{"text": "500 mg BID"}, {"text": "ignored"}],
      "authoredOn": "2023-02-02"}},
    {"resource": {"resourceType": "MedicationStatement", "id": "m2",
      "medicationCodeableConcept": {"text": "Lisinopril"},
      "effectivePeriod": {"start": "2022-01-01"}}},
    {"resource": {"resourceType": "Composition", "id": "n1", "title": "ED note",
      "text": {"div": "<div><p>Fell on right leg.</p></div>"}, "date": "2024-06-01"}},
    {"resource": {"resourceType": "DocumentReference", "id": "n2",
      "description": "Titanium rod in left hand", "created": "2019-09-09"}},
    {"resource": {"resourceType": "DocumentReference", "id": "n3"}},
    {"resource": {"resourceType": "Patient", "id": "p1"}}
  ]
}`

func TestFlatten(t *testing.T) {
	b, err := DecodeBundle([]byte(sampleBundle))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f := Flatten(b)

	counts := f.Counts()
	want := map[string]int{"notes": 2, "labs": 2, "meds": 2, "problems": 2}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("%s: expected %d, got %d", k, v, counts[k])
		}
	}

	p := f.Problems[0]
	if p.Resource != "Condition/c1" || p.Code != "Type 2 diabetes" || p.ClinicalStatus != "active" {
		t.Errorf("unexpected problem %+v", p)
	}
	if p.Onset == nil || *p.Onset != "2015-03-01" {
		t.Errorf("unexpected onset %v", p.Onset)
	}
	if q := f.Problems[1]; q.Code != unknownCondition || q.Onset == nil || *q.Onset != "2020-01-01" {
		t.Errorf("unexpected defaulted problem %+v", q)
	}

	lab := f.Labs[0]
	if lab.Name != "eGFR" || lab.Value == nil || *lab.Value != 42 || lab.Unit == nil || *lab.Unit != "mL/min" {
		t.Errorf("unexpected lab %+v", lab)
	}
	if lab.EffectiveDateTime == nil || *lab.EffectiveDateTime != "2024-05-01T10:00:00Z" {
		t.Errorf("expected issued fallback, got %v", lab.EffectiveDateTime)
	}
	if empty := f.Labs[1]; empty.Value != nil || empty.Unit != nil || empty.EffectiveDateTime != nil {
		t.Errorf("expected nil lab fields, got %+v", empty)
	}

	if m := f.Meds[0]; m.Name != "Metformin" || m.Dose != "500 mg BID" || m.When != "2023-02-02" {
		t.Errorf("unexpected med %+v", m)
	}
	if m := f.Meds[1]; m.When != "2022-01-01" || m.Dose != "" {
		t.Errorf("unexpected med %+v", m)
	}

	if n := f.Notes[0]; n.Text != "ED note Fell on right leg." || n.Date != "2024-06-01" {
		t.Errorf("unexpected note %+v", n)
	}
	if n := f.Notes[1]; n.Resource != "DocumentReference/n2" || n.Date != "2019-09-09" {
		t.Errorf("unexpected note %+v", n)
	}
}

func TestFlatten_Nil(t *testing.T) {
	f := Flatten(nil)
	if f.Notes == nil || f.Labs == nil || f.Meds == nil || f.Problems == nil {
		t.Fatal("expected non-nil lists")
	}
}
