package domain

// Pass labels which stage of the analysis produced a verdict.
type Pass string

const (
	PassInitial Pass = "initial"
	PassDeep    Pass = "deep"
)

// Tier is the model cost tier used for a pass.
type Tier string

const (
	TierCheap  Tier = "cheap"
	TierStrong Tier = "strong"
)

// FailureTag distinguishes why an analysis did not produce a verdict.
type FailureTag string

const (
	FailureMissingCredential FailureTag = "missing_credential"
	FailureTransport         FailureTag = "transport"
	FailureParse             FailureTag = "parse"
)

// Verdict is the structured output of one analysis pass.
type Verdict struct {
	Score             int      `json:"significance_score"`
	Summary           string   `json:"summary"`
	Reasons           []string `json:"alert_reasons"`
	ShouldAlert       bool     `json:"should_alert"`
	RecommendedAction string   `json:"recommended_action"`
	MarketContext     string   `json:"market_context,omitempty"`
	Risks             []string `json:"risks,omitempty"`
	Model             string   `json:"model_used"`
	Tier              Tier     `json:"tier"`
	Pass              Pass     `json:"pass"`
	// Initial is set on deep verdicts only and points at the triage verdict
	// that triggered escalation.
	Initial *Verdict `json:"initial_analysis,omitempty"`
}

// Analysis is the result of analyzing one ticker. When Success is false the
// Verdict is nil and Failure/Error describe the outcome.
type Analysis struct {
	Ticker      string     `json:"ticker"`
	Company     string     `json:"company"`
	Success     bool       `json:"success"`
	Failure     FailureTag `json:"failure,omitempty"`
	Error       string     `json:"error,omitempty"`
	RawResponse string     `json:"raw_response,omitempty"`
	Verdict     *Verdict   `json:"verdict,omitempty"`
}

// Score returns the authoritative score, or zero for failed analyses.
func (a Analysis) Score() int {
	if !a.Success || a.Verdict == nil {
		return 0
	}
	return a.Verdict.Score
}
