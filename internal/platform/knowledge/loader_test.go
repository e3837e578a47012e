package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_cap.txt", "  Community-acquired pneumonia guideline.  \n")
	writeFile(t, dir, "a_acs.md", "# Chest pain\n\nObtain an **ECG** within\n10 minutes.\n\n- troponin\n- aspirin\n")
	writeFile(t, dir, "empty.txt", "   \n")
	writeFile(t, dir, "notes.json", `{"ignored": true}`)
	writeFile(t, dir, "broken.pdf", "this file is not a pdf document at all")
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadDir(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d: %+v", len(docs), docs)
	}
	if docs[0].Source != "a_acs.md" || docs[1].Source != "b_cap.txt" {
		t.Errorf("expected name order, got %s, %s", docs[0].Source, docs[1].Source)
	}
	if docs[1].Text != "Community-acquired pneumonia guideline." {
		t.Errorf("expected trimmed text, got %q", docs[1].Text)
	}
	md := docs[0].Text
	if strings.Contains(md, "#") || strings.Contains(md, "**") {
		t.Errorf("expected markdown syntax stripped, got %q", md)
	}
	for _, want := range []string{"Chest pain", "ECG", "troponin", "aspirin"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in %q", want, md)
		}
	}
}

func TestLoadDir_Missing(t *testing.T) {
	docs, err := LoadDir(filepath.Join(t.TempDir(), "nope"), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
}

func TestMarkdownText_CodeBlock(t *testing.T) {
	got := MarkdownText([]byte("Dose:\n\n```\n5 mg/kg\n```\n"))
	if !strings.Contains(got, "Dose:") || !strings.Contains(got, "5 mg/kg") {
		t.Errorf("unexpected text %q", got)
	}
}
