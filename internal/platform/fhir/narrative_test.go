package fhir

import "testing"

func TestNarrativeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`<div xmlns="http://www.w3.org/1999/xhtml"><p>Fell on  ice.</p><p>Right leg pain.</p></div>`, "Fell on ice.Right leg pain."},
		{"<div><b>Diabetes</b> well controlled</div>", "Diabetes well controlled"},
		{"  plain\n text ", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NarrativeText(tt.in); got != tt.want {
			t.Errorf("NarrativeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
