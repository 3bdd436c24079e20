package watchlist

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/infrastructure/storage"
	"ResearchAssistant/internal/rules"
)

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()

	ctx := context.Background()
	store, err := storage.Open(ctx, config.DatabaseConfig{Backend: config.BackendSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	return NewService(store, store, nil), store
}

func addNVDA(t *testing.T, svc *Service) domain.Ticker {
	t.Helper()
	ticker, err := svc.Add(context.Background(), AddRequest{Symbol: "$nvda", Name: " NVIDIA "})
	require.NoError(t, err)
	return ticker
}

func TestAddNormalisesAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	ticker := addNVDA(t, svc)
	assert.Equal(t, "NVDA", ticker.Symbol)
	assert.Equal(t, "NVIDIA", ticker.Name)
	assert.NotZero(t, ticker.ID)

	_, err := svc.Add(ctx, AddRequest{Symbol: "NVDA", Name: "again"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "$NVDA is already in your watchlist.")

	_, err = svc.Add(ctx, AddRequest{Symbol: "$", Name: "x"})
	assert.EqualError(t, err, "Symbol cannot be empty.")
	_, err = svc.Add(ctx, AddRequest{Symbol: "AMD", Name: "  "})
	assert.EqualError(t, err, "Company name cannot be empty.")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRemoveAndFind(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	addNVDA(t, svc)

	found, err := svc.Find(ctx, "nvda")
	require.NoError(t, err)
	assert.Equal(t, "NVDA", found.Symbol)

	require.NoError(t, svc.Remove(ctx, "$NVDA"))
	err = svc.Remove(ctx, "NVDA")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "$NVDA not found in your watchlist.")

	_, err = svc.Find(ctx, "NVDA")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetRuleOverridesDefaults(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	addNVDA(t, svc)

	rule, value, err := svc.SetRule(ctx, "NVDA", "price_movement_pct", "2.5")
	require.NoError(t, err)
	assert.Equal(t, domain.RulePriceMovementPct, rule)
	assert.Equal(t, 2.5, value.Number())

	require.NoError(t, svc.SetRuleValue(ctx, "NVDA", "sec_filing", domain.BoolValue(false)))

	effective, err := svc.EffectiveRules(ctx, "NVDA")
	require.NoError(t, err)
	defaults := rules.Defaults()
	assert.Len(t, effective, len(defaults))
	assert.Equal(t, 2.5, effective[domain.RulePriceMovementPct].Number())
	assert.False(t, effective[domain.RuleSECFiling].Bool())
	assert.Equal(t, defaults[domain.RuleSentimentShift], effective[domain.RuleSentimentShift])

	again, err := svc.EffectiveRules(ctx, "NVDA")
	require.NoError(t, err)
	assert.Equal(t, effective, again)
}

func TestSetRuleRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()
	addNVDA(t, svc)

	_, _, err := svc.SetRule(ctx, "NVDA", "moon_phase", "full")
	require.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "Unknown rule 'moon_phase'")

	_, _, err = svc.SetRule(ctx, "NVDA", "sentiment_shift", "7")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "Invalid value for 'sentiment_shift': expected boolean, got number.")

	err = svc.SetRuleValue(ctx, "NVDA", "price_movement_pct", domain.BoolValue(true))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.SetRule(ctx, "MSFT", "sec_filing", "true")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, ok, err := store.FindTicker(ctx, "NVDA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, stored.Rules, "rejected writes leave overrides untouched")
}

func TestResetRules(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	addNVDA(t, svc)

	_, _, err := svc.SetRule(ctx, "NVDA", "competitive_news", "off")
	require.NoError(t, err)
	require.NoError(t, svc.ResetRules(ctx, "NVDA"))

	effective, err := svc.EffectiveRules(ctx, "NVDA")
	require.NoError(t, err)
	assert.Equal(t, rules.Defaults(), effective)
}

func TestSetDirective(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	addNVDA(t, svc)

	_, err := svc.SetDirective(ctx, "NVDA", domain.DirectivePatch{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "No changes specified.")

	theme, directive, on := "AI infrastructure", "", true
	changes, err := svc.SetDirective(ctx, "NVDA", domain.DirectivePatch{Theme: &theme, Directive: &directive, ExploreAdjacent: &on})
	require.NoError(t, err)
	assert.Equal(t, []string{"theme='AI infrastructure'", "directive cleared", "explore_adjacent=on"}, changes)

	got, err := svc.Find(ctx, "NVDA")
	require.NoError(t, err)
	assert.Equal(t, "AI infrastructure", got.Theme)
	assert.Empty(t, got.Directive)
	assert.True(t, got.ExploreAdjacent)

	_, err = svc.SetDirective(ctx, "AMD", domain.DirectivePatch{Theme: &theme})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDefaultRulesChangeEffectiveRules(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	addNVDA(t, svc)

	_, _, err := svc.SetDefaultRule(ctx, "price_movement_pct", "3")
	require.NoError(t, err)
	_, _, err = svc.SetDefaultRule(ctx, "sec_filing", "maybe")
	assert.ErrorIs(t, err, domain.ErrValidation)

	defaults, err := svc.DefaultRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.0, defaults[domain.RulePriceMovementPct].Number())
	assert.True(t, defaults[domain.RuleSECFiling].Bool())

	effective, err := svc.EffectiveRules(ctx, "NVDA")
	require.NoError(t, err)
	assert.Equal(t, 3.0, effective[domain.RulePriceMovementPct].Number())
}

func TestGlobalSettings(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGlobalSettings(), settings)

	require.NoError(t, svc.SetGlobal(ctx, "significance_threshold", "8"))
	require.NoError(t, svc.SetGlobal(ctx, "strong_model", "claude-sonnet-4-5"))

	settings, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, settings.SignificanceThreshold)
	assert.Equal(t, "claude-sonnet-4-5", settings.StrongModel)
	assert.Equal(t, domain.DefaultModel, settings.CheapModel)

	for _, bad := range []string{"0", "11", "6.5", "high"} {
		assert.ErrorIs(t, svc.SetGlobal(ctx, "significance_threshold", bad), domain.ErrValidation, bad)
	}
	assert.ErrorIs(t, svc.SetGlobal(ctx, "cheap_model", " "), domain.ErrValidation)

	err = svc.SetGlobal(ctx, "volume", "1")
	require.ErrorIs(t, err, domain.ErrConfig)
	assert.EqualError(t, err, "Unknown setting 'volume'. Valid settings: cheap_model, significance_threshold, strong_model")

	require.NoError(t, store.SetSetting(ctx, domain.SettingSignificanceThreshold, json.RawMessage(`"7"`)))
	settings, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, settings.SignificanceThreshold)
}

func TestOverviewMarksOverrides(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	addNVDA(t, svc)
	_, err := svc.Add(ctx, AddRequest{Symbol: "CAKE", Name: "The Cheesecake Factory"})
	require.NoError(t, err)
	_, _, err = svc.SetRule(ctx, "CAKE", "social_volume_spike", "no")
	require.NoError(t, err)

	entries, settings, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSignificanceThreshold, settings.SignificanceThreshold)
	require.Len(t, entries, 2)
	assert.Equal(t, "NVDA", entries[0].Ticker.Symbol)
	assert.Empty(t, entries[0].Overridden)
	assert.True(t, entries[1].Overridden[domain.RuleSocialVolumeSpike])
	assert.False(t, entries[1].Effective[domain.RuleSocialVolumeSpike].Bool())
}
