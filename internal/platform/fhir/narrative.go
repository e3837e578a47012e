package fhir

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NarrativeText strips markup from an XHTML narrative and collapses
// whitespace. Input that fails to parse is returned with whitespace
// collapsed.
func NarrativeText(xhtml string) string {
	if !strings.Contains(xhtml, "<") {
		return collapse(xhtml)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(xhtml))
	if err != nil {
		return collapse(xhtml)
	}
	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
