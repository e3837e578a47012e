package reasoning

import (
	"strings"

	"github.com/ehr/copilot/internal/domain/retrieval"
)

// placeholderSource is cited for a hit that carries no source name.
const placeholderSource = "local"

// optionRule emits its option when When matches the lower-cased question.
// When receives the options produced so far so a rule can act as a filler.
type optionRule struct {
	Name   string
	When   func(question string, produced int) bool
	Option Option
}

func onQuestion(pred func(string) bool) func(string, int) bool {
	return func(q string, _ int) bool { return pred(q) }
}

var (
	hasFever = keywords("fever")
	hasCough = keywords("cough")
	hasChest = keywords("chest", "chest pain", "pleuritic")
)

// fallbackRules is evaluated in order; every matching rule fires.
var fallbackRules = []optionRule{
	{
		Name: "community-acquired-pneumonia",
		When: onQuestion(all(hasFever, hasCough)),
		Option: Option{
			Title:             "Consider community-acquired pneumonia",
			Rationale:         "Fever + cough pattern; confirm with chest radiograph.",
			Steps:             []string{"Chest X-ray", "Pulse oximetry", "Empiric antibiotics per local protocol"},
			Risks:             []string{"Antibiotic side effects", "Resistance"},
			Contraindications: []string{},
			Monitoring:        []string{"Reassess O2 sat & symptoms in 24–48 h"},
		},
	},
	{
		Name: "cardiac-ischemia",
		When: onQuestion(hasChest),
		Option: Option{
			Title:             "Rule out cardiac ischemia",
			Rationale:         "Chest symptoms warrant ECG and high-sensitivity troponin to exclude ACS.",
			Steps:             []string{"ECG", "High-sensitivity troponin", "Aspirin if no contraindication"},
			Risks:             []string{"Bleeding with antiplatelet"},
			Contraindications: []string{"Active bleeding", "ASA allergy"},
			Monitoring:        []string{"Observation until ruled out"},
		},
	},
	{
		Name: "gather-data",
		When: func(_ string, produced int) bool { return produced < 3 },
		Option: Option{
			Title:     "Obtain more data and risk stratify",
			Rationale: "Evidence limited or mixed; gather diagnostics to narrow differential.",
			Steps: []string{
				"Detailed history (onset, severity, modifiers)",
				"Vitals, CBC/CMP",
				"Imaging/tests guided by exam",
			},
			Risks:             []string{},
			Contraindications: []string{},
			Monitoring:        []string{"Close follow-up; escalate on red flags"},
		},
	},
}

// Fallback derives options from keyword rules over the question. It never
// fails and always returns at least one option.
func Fallback(question string, facts []PatientFact, hits []retrieval.ScoredChunk) []Option {
	return DefaultPolicy().Fallback(question, facts, hits)
}

// Fallback is the policy-parameterized form of the package-level Fallback.
func (p Policy) Fallback(question string, _ []PatientFact, hits []retrieval.ScoredChunk) []Option {
	q := strings.ToLower(question)
	cites := hitCitations(hits, p.MaxFallbackCites)

	var opts []Option
	for _, rule := range fallbackRules {
		if !rule.When(q, len(opts)) {
			continue
		}
		opts = append(opts, withCitations(rule.Option, cites))
	}
	if len(opts) > p.MaxOptions {
		opts = opts[:p.MaxOptions]
	}
	return opts
}

// hitCitations returns up to max unique sources in first-seen order.
func hitCitations(hits []retrieval.ScoredChunk, max int) []string {
	cites := []string{}
	seen := map[string]struct{}{}
	for _, h := range hits {
		if len(cites) >= max {
			break
		}
		src := strings.TrimSpace(h.Source)
		if src == "" {
			src = placeholderSource
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		cites = append(cites, src)
	}
	return cites
}

// withCitations copies the template so callers never share rule slices.
func withCitations(o Option, cites []string) Option {
	return Option{
		Title:             o.Title,
		Rationale:         o.Rationale,
		Steps:             append([]string{}, o.Steps...),
		Risks:             append([]string{}, o.Risks...),
		Contraindications: append([]string{}, o.Contraindications...),
		Monitoring:        append([]string{}, o.Monitoring...),
		Citations:         append([]string{}, cites...),
	}
}
