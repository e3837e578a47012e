package fhir

import "testing"

func TestDecodeBundle(t *testing.T) {
	b, err := DecodeBundle([]byte(`{"resourceType":"Bundle","type":"collection","entry":[
		{"resource":{"resourceType":"Condition","id":"c1"}},
		{"resource":"not an object"},
		{"fullUrl":"urn:uuid:1"}
	]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Type != "collection" || len(b.Entry) != 3 {
		t.Fatalf("unexpected bundle %+v", b)
	}
	res := b.Resources()
	if len(res) != 1 || res[0].Reference() != "Condition/c1" {
		t.Errorf("unexpected resources %+v", res)
	}
}

func TestDecodeBundle_NoResourceType(t *testing.T) {
	b, err := DecodeBundle([]byte(`{"entry":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Resources()) != 0 {
		t.Error("expected no resources")
	}
}

func TestDecodeBundle_Errors(t *testing.T) {
	for _, raw := range []string{`[]`, `{"resourceType":"Patient"}`, `{`} {
		if _, err := DecodeBundle([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}
