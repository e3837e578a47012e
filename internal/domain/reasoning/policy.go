package reasoning

// Policy holds the list caps applied when building options and summaries.
type Policy struct {
	MaxOptions          int
	MaxFallbackCites    int
	MaxOptionListItems  int
	MaxDifferential     int
	MaxPulledSteps      int
	MaxDiagnostics      int
	MaxTreatment        int
	MaxDisposition      int
	MaxCounseling       int
	MaxRedFlags         int
	MaxSummaryCitations int
}

// DefaultPolicy returns the caps the service has always shipped with.
func DefaultPolicy() Policy {
	return Policy{
		MaxOptions:          3,
		MaxFallbackCites:    2,
		MaxOptionListItems:  6,
		MaxDifferential:     6,
		MaxPulledSteps:      8,
		MaxDiagnostics:      8,
		MaxTreatment:        8,
		MaxDisposition:      6,
		MaxCounseling:       6,
		MaxRedFlags:         6,
		MaxSummaryCitations: 6,
	}
}

// NormalizeOption caps every list of o and keeps only citations listed in
// allowed. A nil allowed set keeps all citations.
func (p Policy) NormalizeOption(o Option, allowed map[string]bool) Option {
	n := p.MaxOptionListItems
	cites := make([]string, 0, len(o.Citations))
	for _, c := range o.Citations {
		if allowed == nil || allowed[c] {
			cites = append(cites, c)
		}
	}
	return Option{
		Title:             o.Title,
		Rationale:         o.Rationale,
		Steps:             Dedup(o.Steps, n),
		Risks:             Dedup(o.Risks, n),
		Contraindications: Dedup(o.Contraindications, n),
		Monitoring:        Dedup(o.Monitoring, n),
		Citations:         Dedup(cites, n),
	}
}
