package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/rules"
)

func triagePrompt(req Request) string {
	var rulesText strings.Builder
	for _, name := range rules.SortedNames(req.Rules) {
		fmt.Fprintf(&rulesText, "  - %s: %s\n", name, req.Rules[name])
	}

	return fmt.Sprintf(`You are a financial research analyst assistant. Analyze the following research data
for %s (%s) and determine its significance.

## Alert Rules (what the user wants to be notified about):
%s
## Research Data:
%s

## Your Task:
1. Analyze the research data above
2. Score its significance on a scale of 1-10 based on the alert rules
3. Provide a brief summary of key findings
4. Recommend whether to alert the user

## Response Format (JSON):
{
  "significance_score": <1-10>,
  "summary": "<2-3 sentence summary of key findings>",
  "alert_reasons": ["<reason 1>", "<reason 2>"],
  "should_alert": <true/false>,
  "recommended_action": "<what the user should consider doing>"
}

Respond ONLY with valid JSON, no markdown code fences or extra text.`,
		req.Ticker, req.company(), rulesText.String(), req.Document)
}

func deepPrompt(req Request, initial *domain.Verdict) string {
	assessment, err := json.MarshalIndent(initial, "", "  ")
	if err != nil {
		assessment = []byte(initial.Summary)
	}

	return fmt.Sprintf(`You are a senior financial research analyst. A junior analyst flagged %s (%s)
as potentially significant (score: %d/10).

## Junior Analyst's Assessment (needs senior review):
%s

## Full Research Data:
%s

## Your Task:
Provide a deeper analysis. Consider:
- Is the junior analyst's significance score justified?
- What broader market context should the user be aware of?
- Are there any risks or nuances the initial analysis missed?
- What specific action should the user consider?

## Response Format (JSON):
{
  "significance_score": <1-10, your revised assessment>,
  "summary": "<3-5 sentence deep analysis>",
  "alert_reasons": ["<reason 1>", "<reason 2>"],
  "should_alert": <true/false>,
  "recommended_action": "<specific, actionable recommendation>",
  "market_context": "<broader context>",
  "risks": ["<risk 1>", "<risk 2>"]
}

Respond ONLY with valid JSON, no markdown code fences or extra text.`,
		req.Ticker, req.company(), initial.Score, assessment, req.Document)
}
