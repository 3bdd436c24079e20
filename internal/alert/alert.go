// Package alert gates analyses on the alert threshold and renders them as
// chat messages.
package alert

import (
	"fmt"
	"strings"

	"ResearchAssistant/internal/domain"
)

// Severity markers by score band.
const (
	SeverityHigh   = "🔴"
	SeverityMedium = "🟡"
	SeverityLow    = "🟢"
)

// ShouldAlert reports whether a successful analysis meets the threshold.
// Failed analyses never alert.
func ShouldAlert(a domain.Analysis, threshold int) bool {
	if !a.Success || a.Verdict == nil {
		return false
	}
	return a.Verdict.Score >= threshold
}

// SeverityFor maps a score to its marker.
func SeverityFor(score int) string {
	switch {
	case score >= 8:
		return SeverityHigh
	case score >= 6:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Format renders one ticker's verdict as an alert message.
func Format(a domain.Analysis) string {
	v := a.Verdict
	if v == nil {
		v = &domain.Verdict{}
	}
	company := a.Company
	if company == "" {
		company = a.Ticker
	}
	summary := v.Summary
	if summary == "" {
		summary = "No summary available."
	}
	model := v.Model
	if model == "" {
		model = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s **Alert: $%s** (%s)\n", SeverityFor(v.Score), a.Ticker, company)
	fmt.Fprintf(&b, "Significance: **%d/10**\n\n", v.Score)
	fmt.Fprintf(&b, "📋 **Summary:** %s\n\n", summary)

	if len(v.Reasons) > 0 {
		b.WriteString("🎯 **Why I'm alerting you:**\n")
		for _, reason := range v.Reasons {
			fmt.Fprintf(&b, "  • %s\n", reason)
		}
		b.WriteString("\n")
	}
	if v.RecommendedAction != "" {
		fmt.Fprintf(&b, "💡 **Recommended action:** %s\n\n", v.RecommendedAction)
	}
	if v.MarketContext != "" {
		fmt.Fprintf(&b, "🌍 **Market context:** %s\n\n", v.MarketContext)
	}
	if len(v.Risks) > 0 {
		b.WriteString("⚠️ **Risks to consider:**\n")
		for _, risk := range v.Risks {
			fmt.Fprintf(&b, "  • %s\n", risk)
		}
		b.WriteString("\n")
	}

	kind := "Quick scan"
	if v.Pass == domain.PassDeep {
		kind = "Deep analysis"
	}
	fmt.Fprintf(&b, "_(%s via %s)_\n\n", kind, model)
	b.WriteString("👉 Ask me for a **deep dive** on this ticker for more details.")
	return b.String()
}

// Outcome is one ticker's result in a heartbeat round.
type Outcome struct {
	Analysis domain.Analysis
	Alerted  bool
}

// FormatSummary renders a heartbeat round.
func FormatSummary(outcomes []Outcome) string {
	if len(outcomes) == 0 {
		return "💤 Heartbeat complete. No tickers to check."
	}

	var alerted, quiet []Outcome
	for _, o := range outcomes {
		if o.Alerted {
			alerted = append(alerted, o)
		} else {
			quiet = append(quiet, o)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💓 **Heartbeat Complete** - checked %d tickers\n\n", len(outcomes))
	if len(alerted) > 0 {
		fmt.Fprintf(&b, "🚨 **%d alert(s) triggered:**\n", len(alerted))
		for _, o := range alerted {
			fmt.Fprintf(&b, "  • $%s: %d/10\n", o.Analysis.Ticker, o.Analysis.Score())
		}
	} else {
		b.WriteString("✅ All clear - no significant events detected.\n")
	}

	if len(quiet) > 0 {
		symbols := make([]string, len(quiet))
		for i, o := range quiet {
			symbols[i] = "$" + o.Analysis.Ticker
		}
		fmt.Fprintf(&b, "\n😴 %d ticker(s) quiet: %s\n", len(quiet), strings.Join(symbols, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
