package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAssistant/internal/app"
	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
)

func newTestSession(t *testing.T) *session {
	t.Helper()

	cfg := config.Config{
		Database:  config.DatabaseConfig{Backend: config.BackendSQLite, DSN: ":memory:"},
		Analysis:  config.AnalysisConfig{EscalationThreshold: 5},
		Heartbeat: config.HeartbeatConfig{CronExpression: "*/15 * * * *", Agent: "max"},
	}
	a, err := app.New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return &session{app: a}
}

func runCLI(t *testing.T, s *session, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand(s)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWatchlistCommands(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)

	out, err := runCLI(t, s, "watchlist", "add", "$nvda", "NVIDIA", "Corp", "--theme", "AI")
	require.NoError(t, err)
	assert.Contains(t, out, "Added $NVDA (NVIDIA Corp) to your watchlist")

	_, err = runCLI(t, s, "watchlist", "add", "NVDA", "again")
	assert.EqualError(t, err, "$NVDA is already in your watchlist.")

	out, err = runCLI(t, s, "watchlist", "set-rule", "NVDA", "price_movement_pct", "2.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Price movement alert: >2.5%")

	_, err = runCLI(t, s, "watchlist", "set-rule", "NVDA", "moon_phase", "full")
	assert.ErrorIs(t, err, domain.ErrConfig)

	out, err = runCLI(t, s, "watchlist", "set-rule", "--default", "sec_filing", "off")
	require.NoError(t, err)
	assert.Contains(t, out, "Default SEC Filing: ❌")

	out, err = runCLI(t, s, "watchlist", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "$NVDA")
	assert.Contains(t, out, "price_movement_pct=2.5")
	assert.Contains(t, out, "Alert threshold: 6/10")

	out, err = runCLI(t, s, "watchlist", "show", "nvda")
	require.NoError(t, err)
	assert.Contains(t, out, "Theme: AI")
	assert.Contains(t, out, "Price movement alert: >2.5% (custom)")

	out, err = runCLI(t, s, "watchlist", "set-directive", "NVDA", "--directive", "Track orders", "--explore-adjacent")
	require.NoError(t, err)
	assert.Contains(t, out, "directive='Track orders', explore_adjacent=on")

	_, err = runCLI(t, s, "watchlist", "set-directive", "NVDA")
	assert.EqualError(t, err, "No changes specified.")

	_, err = runCLI(t, s, "watchlist", "set-global", "significance_threshold", "11")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = runCLI(t, s, "watchlist", "reset-rules", "NVDA")
	require.NoError(t, err)
	_, err = runCLI(t, s, "watchlist", "remove", "NVDA")
	require.NoError(t, err)
	_, err = runCLI(t, s, "watchlist", "remove", "NVDA")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleCommands(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)

	out, err := runCLI(t, s, "schedule", "add", "--name", "Evening Wrap", "--time", "18:00", "--days", "1-5", "--prompt", "wrap up")
	require.NoError(t, err)
	assert.Contains(t, out, "Created schedule #1 'Evening Wrap' at 18:00 (weekdays) for max")

	_, err = runCLI(t, s, "schedule", "add", "--name", "Bad", "--time", "25:00", "--prompt", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)

	out, err = runCLI(t, s, "schedule", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Evening Wrap")
	assert.Contains(t, out, "Times are in UTC.")

	out, err = runCLI(t, s, "schedule", "update", "1", "--time", "19:30", "--disable")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated schedule #1")
	assert.Contains(t, out, "paused")

	out, err = runCLI(t, s, "schedule", "show", "#1")
	require.NoError(t, err)
	assert.Contains(t, out, "Time:     19:30")
	assert.Contains(t, out, "Status:   paused")

	_, err = runCLI(t, s, "schedule", "update", "1")
	assert.EqualError(t, err, "No changes specified.")

	_, err = runCLI(t, s, "schedule", "show", "abc")
	assert.ErrorIs(t, err, domain.ErrValidation)

	out, err = runCLI(t, s, "schedule", "seed-defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "Schedules already exist (1 found). Skipping seed.")

	_, err = runCLI(t, s, "schedule", "mark-run", "1")
	require.NoError(t, err)

	_, err = runCLI(t, s, "schedule", "delete", "1")
	require.NoError(t, err)
	_, err = runCLI(t, s, "schedule", "delete", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err = runCLI(t, s, "schedule", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No schedules found.")
}

func TestTimezoneCommands(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)

	out, err := runCLI(t, s, "timezone", "show")
	require.NoError(t, err)
	assert.Equal(t, "UTC\n", out)

	_, err = runCLI(t, s, "timezone", "set", "Mars/Olympus")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "Unknown timezone 'Mars/Olympus'")

	_, err = runCLI(t, s, "timezone", "set", "Europe/Berlin")
	require.NoError(t, err)
	out, err = runCLI(t, s, "timezone", "show")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin\n", out)
}

func TestAnalyzeWithoutCredentials(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)

	root := newRootCommand(s)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("# Research Report: NVDA\nRecord quarter."))
	root.SetArgs([]string{"analyze", "--ticker", "nvda", "--json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var result domain.Analysis
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "NVDA", result.Ticker)
	assert.False(t, result.Success)
	assert.Equal(t, domain.FailureMissingCredential, result.Failure)

	_, err := runCLI(t, s, "analyze", "--ticker", "NVDA")
	assert.ErrorIs(t, err, domain.ErrValidation, "empty stdin is rejected")

	_, err = runCLI(t, s, "analyze", "--data", "-")
	assert.EqualError(t, err, "--ticker is required")
}

func TestHeartbeatOnceWithEmptyWatchlist(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)

	out, err := runCLI(t, s, "heartbeat", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "💤 Heartbeat complete. No tickers to check.")
}

func TestMigrateIsRepeatable(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)

	out, err := runCLI(t, s, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is up to date (sqlite)")
}
