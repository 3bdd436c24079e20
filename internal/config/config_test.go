package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Database.Backend)
	assert.Equal(t, 5, cfg.Analysis.EscalationThreshold)
	assert.Equal(t, "*/15 * * * *", cfg.Heartbeat.CronExpression)
	assert.Equal(t, 30*time.Second, cfg.Gradient.Timeout)
	assert.Equal(t, []string{"news", "reddit", "sec"}, cfg.Sources.Enabled)
	assert.Equal(t, []string{"10-K", "10-Q", "8-K", "4"}, cfg.Sources.SEC.Forms)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  backend: postgres
  dsn: postgres://research@localhost/research
analysis:
  escalationThreshold: 4
notifications:
  telegram:
    chatId: "42"
sources:
  news:
    maxItems: 3
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv("RESEARCH_GRADIENT_API_KEY", "gk-test")
	t.Setenv("RESEARCH_HEARTBEAT_AGENT", "nova")
	t.Setenv("RESEARCH_SOURCES_ENABLED", "news")
	t.Setenv(telegramTokenEnv, "bot-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Database.Backend)
	assert.Equal(t, 4, cfg.Analysis.EscalationThreshold)
	assert.Equal(t, "42", cfg.Notifications.Telegram.ChatID)
	assert.Equal(t, "bot-token", cfg.Notifications.Telegram.BotToken)
	assert.Equal(t, "https://api.telegram.org", cfg.Notifications.Telegram.APIBase)
	assert.Equal(t, "gk-test", cfg.Gradient.APIKey)
	assert.Equal(t, "nova", cfg.Heartbeat.Agent)
	assert.Equal(t, []string{"news"}, cfg.Sources.Enabled)
	assert.Equal(t, 3, cfg.Sources.News.MaxItems)
	assert.Equal(t, 10, cfg.Sources.Reddit.MaxPosts)
}

func TestLoadRejectsBadBackend(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("RESEARCH_DATABASE_BACKEND", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database backend")
}

func TestValidateEscalationRange(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Analysis.EscalationThreshold = 11
	assert.Error(t, cfg.Validate())

	cfg.Analysis.EscalationThreshold = 1
	assert.NoError(t, cfg.Validate())
}
