package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ehr/copilot/internal/domain/retrieval"
	"github.com/ehr/copilot/internal/platform/llm"
)

// snippetChars bounds each evidence snippet quoted in the prompt.
const snippetChars = 300

var errNoJSON = errors.New("model output is not JSON")

const (
	reasonDisabled = "generative backend not configured"
	reasonEmpty    = "empty options"
)

// Result is the outcome of a generation attempt.
type Result struct {
	Options []Option
	Reason  string
}

func Success(opts []Option) Result { return Result{Options: opts} }

func Failure(reason string) Result { return Result{Reason: reason} }

// Failed reports an explicit failure or a success carrying no options.
func (r Result) Failed() bool {
	return r.Reason != "" || len(r.Options) == 0
}

// FailureReason describes why the result cannot be used.
func (r Result) FailureReason() string {
	if r.Reason != "" {
		return r.Reason
	}
	if len(r.Options) == 0 {
		return reasonEmpty
	}
	return ""
}

// Generator proposes options for a question.
type Generator interface {
	Generate(ctx context.Context, question string, facts []PatientFact, hits []retrieval.ScoredChunk) Result
}

// ModelGenerator asks a text-generation backend for strict JSON options.
type ModelGenerator struct {
	completer llm.Completer
	timeout   time.Duration
	policy    Policy
}

func NewModelGenerator(c llm.Completer, timeout time.Duration, p Policy) *ModelGenerator {
	return &ModelGenerator{completer: c, timeout: timeout, policy: p}
}

func (g *ModelGenerator) Generate(ctx context.Context, question string, facts []PatientFact, hits []retrieval.ScoredChunk) Result {
	if g == nil || g.completer == nil {
		return Failure(reasonDisabled)
	}
	sources := evidenceSources(hits)
	prompt := BuildPrompt(question, facts, hits)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return Failure(fmt.Sprintf("completion failed: %v", err))
	}

	opts, err := ParseOptions(text)
	if err != nil {
		return Failure(err.Error())
	}
	if len(opts) > g.policy.MaxOptions {
		opts = opts[:g.policy.MaxOptions]
	}

	allowed := make(map[string]bool, len(sources))
	for _, s := range sources {
		allowed[s] = true
	}
	for i := range opts {
		opts[i] = g.policy.NormalizeOption(opts[i], allowed)
	}
	return Success(opts)
}

// ParseOptions extracts the outermost JSON object from text and decodes its
// options list.
func ParseOptions(text string) ([]Option, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, errNoJSON
	}
	var payload struct {
		Options []Option `json:"options"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return payload.Options, nil
}

// evidenceSources lists the unique non-blank hit sources in first-seen order.
func evidenceSources(hits []retrieval.ScoredChunk) []string {
	var out []string
	seen := map[string]bool{}
	for _, h := range hits {
		src := strings.TrimSpace(h.Source)
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}

const promptHeader = `You are a clinical reasoning assistant. Output STRICT JSON ONLY.

Schema:
{
  "options": [
    {
      "title": str,
      "rationale": str,
      "steps": [str],
      "risks": [str],
      "contraindications": [str],
      "monitoring": [str],
      "citations": [str]   // filenames ONLY from the list below
    },
    {...}, {...}
  ]
}

Rules:
- Cite ONLY from these allowed filenames:
`

// BuildPrompt renders the strict-JSON instruction prompt.
func BuildPrompt(question string, facts []PatientFact, hits []retrieval.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	writeList(&b, evidenceSources(hits))
	b.WriteString("- If none fit, use [].\n- Keep lists concise (≤6). No text outside JSON.\n\n")

	b.WriteString("<Question>\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\n<Patient_Facts>\n")
	factLines := make([]string, 0, len(facts))
	for _, f := range facts {
		factLines = append(factLines, f.Text)
	}
	writeList(&b, factLines)

	b.WriteString("\n<Evidence_Snippets>\n")
	docLines := make([]string, 0, len(hits))
	for _, h := range hits {
		docLines = append(docLines, fmt.Sprintf("(%s) %s", strings.TrimSpace(h.Source), snippet(h.Text)))
	}
	writeList(&b, docLines)
	b.WriteString("\n<JSON>\n")
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
}

func snippet(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	r := []rune(text)
	if len(r) > snippetChars {
		r = r[:snippetChars]
	}
	return string(r)
}
