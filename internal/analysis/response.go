package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"ResearchAssistant/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type triageResponse struct {
	Score             *int     `json:"significance_score" validate:"required,min=1,max=10"`
	Summary           *string  `json:"summary" validate:"required"`
	Reasons           []string `json:"alert_reasons" validate:"required"`
	ShouldAlert       *bool    `json:"should_alert" validate:"required"`
	RecommendedAction *string  `json:"recommended_action" validate:"required"`
}

type deepResponse struct {
	Score             *int     `json:"significance_score" validate:"required,min=1,max=10"`
	Summary           *string  `json:"summary" validate:"required"`
	Reasons           []string `json:"alert_reasons" validate:"required"`
	ShouldAlert       *bool    `json:"should_alert" validate:"required"`
	RecommendedAction *string  `json:"recommended_action" validate:"required"`
	MarketContext     *string  `json:"market_context" validate:"required"`
	Risks             []string `json:"risks" validate:"required"`
}

// stripFences drops every line that opens or closes a fenced code block and
// trims surrounding whitespace.
func stripFences(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func decodeStrict(text string, out any) error {
	dec := json.NewDecoder(strings.NewReader(stripFences(text)))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("decode model response: trailing content after JSON object")
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validate model response: %w", err)
	}
	return nil
}

func parseVerdict(text string, pass domain.Pass) (*domain.Verdict, error) {
	if pass == domain.PassDeep {
		var resp deepResponse
		if err := decodeStrict(text, &resp); err != nil {
			return nil, err
		}
		return &domain.Verdict{
			Score:             *resp.Score,
			Summary:           *resp.Summary,
			Reasons:           resp.Reasons,
			ShouldAlert:       *resp.ShouldAlert,
			RecommendedAction: *resp.RecommendedAction,
			MarketContext:     *resp.MarketContext,
			Risks:             resp.Risks,
			Pass:              domain.PassDeep,
		}, nil
	}

	var resp triageResponse
	if err := decodeStrict(text, &resp); err != nil {
		return nil, err
	}
	return &domain.Verdict{
		Score:             *resp.Score,
		Summary:           *resp.Summary,
		Reasons:           resp.Reasons,
		ShouldAlert:       *resp.ShouldAlert,
		RecommendedAction: *resp.RecommendedAction,
		Pass:              domain.PassInitial,
	}, nil
}
