package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleValueJSON(t *testing.T) {
	t.Parallel()

	set := RuleSet{
		RulePriceMovementPct: NumberValue(2.5),
		RuleSECFiling:        BoolValue(false),
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price_movement_pct":2.5,"sec_filing":false}`, string(raw))

	var decoded RuleSet
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, set, decoded)
	assert.Equal(t, RuleBoolean, decoded[RuleSECFiling].Kind())

	var bad RuleSet
	assert.Error(t, json.Unmarshal([]byte(`{"sec_filing":"yes"}`), &bad))

	_, err = json.Marshal(RuleValue{})
	assert.Error(t, err)
}

func TestRuleValueString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "5", NumberValue(5).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "", RuleValue{}.String())
}

func TestRuleSetClone(t *testing.T) {
	t.Parallel()

	orig := RuleSet{RuleSentimentShift: BoolValue(true)}
	clone := orig.Clone()
	clone[RuleSentimentShift] = BoolValue(false)
	assert.True(t, orig[RuleSentimentShift].Bool())
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"nvda":    "NVDA",
		" $cake ": "CAKE",
		"$$amd":   "AMD",
		"$":       "",
		"":        "",
	} {
		assert.Equal(t, want, NormalizeSymbol(in), in)
	}
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrap: %w", NotFoundf("$%s not found in your watchlist.", "NVDA"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "wrap: $NVDA not found in your watchlist.", err.Error())

	assert.ErrorIs(t, ErrMissingCredential, ErrConfig)
	assert.ErrorIs(t, Validationf("x"), ErrValidation)
}

func TestAnalysisScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Analysis{Success: false, Verdict: &Verdict{Score: 9}}.Score())
	assert.Equal(t, 7, Analysis{Success: true, Verdict: &Verdict{Score: 7}}.Score())
}
