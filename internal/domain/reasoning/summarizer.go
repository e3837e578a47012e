package reasoning

import (
	"strings"

	"github.com/ehr/copilot/internal/domain/retrieval"
)

const filteringNote = "Filtering: large records are trimmed to comorbidities/constraints that change decisions (e.g., diabetes, CKD, metal hardware)."

var (
	isTrauma      = keywords("fall", "fell", "trauma")
	hasLeg        = keywords("leg", "hip", "femur", "tibia")
	hasArm        = keywords("arm", "humerus", "radius", "ulna")
	hasArmInjury  = keywords("arm", "humerus", "radius", "ulna", "wrist")
	hasChestPain  = keywords("chest pain", "chest tightness")
	isRespiratory = keywords("fever", "cough", "pleuritic")
	hasHardware   = keywords("rod", "implant", "metal")
	hasLimb       = func(b string) bool { return hasLeg(b) || hasArm(b) }
)

// problemRule produces the problem statement; the first match wins.
type problemRule struct {
	Name   string
	When   func(blob string) bool
	Phrase func(blob string) string
}

var problemRules = []problemRule{
	{Name: "trauma", When: isTrauma, Phrase: traumaProblem},
	{Name: "chest-pain", When: hasChestPain, Phrase: fixed("Acute chest pain.")},
	{Name: "respiratory", When: isRespiratory, Phrase: fixed("Fever with cough; possible CAP.")},
}

func fixed(s string) func(string) string { return func(string) string { return s } }

func traumaProblem(blob string) string {
	words := retrieval.Tokenize(blob)
	side := ""
	if _, ok := words["right"]; ok {
		side = "right "
	} else if _, ok := words["left"]; ok {
		side = "left "
	}
	limb := ""
	switch {
	case hasLeg(blob):
		limb = "leg"
	case hasArm(blob):
		limb = "arm"
	}
	switch {
	case limb != "":
		return "Acute post-traumatic pain in the " + side + limb + " after fall."
	case side != "":
		return "Acute pain after fall (" + side + "side)."
	default:
		return "Acute pain after fall."
	}
}

// factorRule contributes to Factors when When matches the blob.
type factorRule struct {
	When     func(blob string) bool
	Relevant string
	Ignored  string
}

var factorRules = []factorRule{
	{When: hasHardware, Relevant: "Metal implant present → MRI contraindicated; prefer X-ray/CT."},
	{When: keywords("diabetes", "hba1c"), Relevant: "Type 2 diabetes → delayed bone healing & higher infection risk."},
	{When: keywords("egfr", "ckd", "chronic kidney"), Relevant: "Chronic kidney disease → check eGFR for med/contrast choices."},
	{
		When:    all(keywords("asthma"), not(keywords("wheeze", "bronchospasm", "sob", "shortness of breath"))),
		Ignored: "Asthma (controlled) — not relevant to this presentation.",
	},
	{
		When:    all(keywords("cancer"), not(keywords("recurr", "metast", "chemo", "radiation"))),
		Ignored: "Past cancer (no active disease) — not currently relevant.",
	},
}

const noComorbidFactors = "No comorbid factors obviously altering immediate management."

// scenario is one clinical presentation and the summary fragments it adds.
// Matching scenarios are concatenated in table order, field by field.
type scenario struct {
	Name         string
	When         func(blob string) bool
	Differential []string
	Diagnostics  []string
	Treatment    []string
	Disposition  []string
	Counseling   []string
	RedFlags     []string
}

var scenarios = []scenario{
	{
		Name: "trauma-leg",
		When: all(isTrauma, hasLeg),
		Differential: []string{
			"Fracture (hip/femur/tibia/fibula) ± occult fracture",
			"Ligament/meniscal injury or severe contusion",
			"Compartment syndrome (if escalating pain/swelling)",
		},
	},
	{
		Name: "trauma-arm",
		When: all(isTrauma, hasArmInjury),
		Differential: []string{
			"Fracture (humerus/radius/ulna) ± dislocation",
			"Neurovascular injury (check pulses/sensation)",
		},
	},
	{
		Name: "trauma-limb",
		When: all(isTrauma, hasLimb),
		Diagnostics: []string{
			"X-ray of affected limb (AP/lateral).",
			"CT if X-ray non-diagnostic or intra-articular/complex injury suspected.",
			"Neurovascular exam; document pulses, capillary refill, sensation, motor.",
		},
		Treatment: []string{
			"Immobilize/splint; RICE (rest, ice, compression, elevation).",
			"Analgesia (acetaminophen ± short opioid if severe; avoid NSAIDs if fracture + CKD).",
		},
		Disposition: []string{
			"Limit weight-bearing until fracture excluded/managed.",
			"Orthopedics referral within 24–72 h (earlier if displaced/open fracture).",
		},
		Counseling: []string{
			"With diabetes, expect slower healing; monitor skin integrity & glucose closely.",
			"Return immediately for numbness, escalating pain, worsening swelling, fever.",
		},
		RedFlags: []string{"Pain out of proportion (compartment syndrome)", "Neurovascular deficit", "Open fracture"},
	},
	{
		Name:        "trauma-hardware",
		When:        all(isTrauma, hasLimb, hasHardware),
		Diagnostics: []string{"Avoid MRI due to metal hardware."},
	},
	{
		Name:         "chest-pain",
		When:         hasChestPain,
		Differential: []string{"Acute coronary syndrome", "Aortic pathology", "Pulmonary embolism", "Musculoskeletal"},
		Diagnostics: []string{
			"12-lead ECG now; repeat with symptoms.",
			"High-sensitivity troponin at 0/1–3 h per protocol.",
		},
		Treatment:   []string{"Aspirin 160–325 mg chewed if no contraindication.", "Monitor on telemetry; IV access."},
		Disposition: []string{"Risk-stratify for ACS; admit if elevated risk or abnormal troponin/ECG."},
		RedFlags:    []string{"New ST-changes, rising troponin, hemodynamic instability"},
	},
	{
		Name:         "respiratory",
		When:         isRespiratory,
		Differential: []string{"Community-acquired pneumonia", "Viral bronchitis", "PE (if pleuritic/hypoxia)"},
		Diagnostics:  []string{"Chest radiograph", "Pulse oximetry and vitals trend"},
		Treatment:    []string{"Start empiric CAP antibiotics per local resistance when clinical suspicion high."},
		RedFlags:     []string{"O₂ sat < 90–92% RA", "Respiratory distress"},
	},
}

// Defaults used when no rule contributed to a field.
var (
	defaultDifferential = []string{"Undifferentiated presentation; refine with focused history and exam"}
	defaultDiagnostics  = []string{"Focused history & exam", "Targeted labs/imaging based on differential"}
	defaultTreatment    = []string{"Symptom control", "Safety-net and close follow-up"}
	defaultDisposition  = []string{"Outpatient vs. ED observation depending on vitals, pain control, and red flags"}
	defaultCounseling   = []string{"Explain warning signs and return precautions; arrange follow-up."}
	defaultRedFlags     = []string{"Hemodynamic instability or rapidly worsening symptoms"}
)

// Summarizer derives a structured note from a question, patient facts and
// the chosen options.
type Summarizer struct {
	policy Policy
}

func NewSummarizer(p Policy) *Summarizer {
	return &Summarizer{policy: p}
}

// Summarize uses the default policy.
func Summarize(question string, facts []PatientFact, options []Option) Summary {
	return NewSummarizer(DefaultPolicy()).Summarize(question, facts, options)
}

// Summarize is total: any input, including all-empty input, yields a fully
// populated summary.
func (s *Summarizer) Summarize(question string, facts []PatientFact, options []Option) Summary {
	p := s.policy
	blob := strings.ToLower(buildBlob(question, facts))

	var differential, diagnostics, treatment, disposition, counseling, redFlags []string
	for _, sc := range scenarios {
		if !sc.When(blob) {
			continue
		}
		differential = append(differential, sc.Differential...)
		diagnostics = append(diagnostics, sc.Diagnostics...)
		treatment = append(treatment, sc.Treatment...)
		disposition = append(disposition, sc.Disposition...)
		counseling = append(counseling, sc.Counseling...)
		redFlags = append(redFlags, sc.RedFlags...)
	}

	var steps []string
	for _, o := range options {
		steps = append(steps, o.Steps...)
	}
	pulled := Dedup(steps, p.MaxPulledSteps)

	var cites []string
	for _, o := range options {
		cites = append(cites, o.Citations...)
	}

	return Summary{
		Problem:      problem(question, blob),
		Factors:      factors(blob),
		Differential: orDefault(Dedup(differential, p.MaxDifferential), defaultDifferential...),
		Diagnostics:  orDefault(Dedup(append(pulled, diagnostics...), p.MaxDiagnostics), defaultDiagnostics...),
		Treatment:    orDefault(Dedup(treatment, p.MaxTreatment), defaultTreatment...),
		Disposition:  orDefault(Dedup(disposition, p.MaxDisposition), defaultDisposition...),
		Counseling:   orDefault(Dedup(counseling, p.MaxCounseling), defaultCounseling...),
		RedFlags:     orDefault(Dedup(redFlags, p.MaxRedFlags), defaultRedFlags...),
		Notes:        []string{filteringNote},
		Citations:    Dedup(cites, p.MaxSummaryCitations),
	}
}

// buildBlob joins the question and every non-blank fact, question first.
func buildBlob(question string, facts []PatientFact) string {
	lines := []string{question}
	for _, f := range facts {
		if t := strings.TrimSpace(f.Text); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

func problem(question, blob string) string {
	for _, r := range problemRules {
		if r.When(blob) {
			return r.Phrase(blob)
		}
	}
	q := strings.TrimRight(strings.TrimSpace(question), ".?")
	if q == "" {
		return "Current concern."
	}
	return q + "."
}

func factors(blob string) Factors {
	f := Factors{Relevant: []string{}, Ignored: []string{}}
	for _, r := range factorRules {
		if !r.When(blob) {
			continue
		}
		if r.Relevant != "" {
			f.Relevant = append(f.Relevant, r.Relevant)
		}
		if r.Ignored != "" {
			f.Ignored = append(f.Ignored, r.Ignored)
		}
	}
	if len(f.Relevant) == 0 {
		f.Relevant = append(f.Relevant, noComorbidFactors)
	}
	return f
}
