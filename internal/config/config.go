package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "RESEARCH_ASSISTANT_CONFIG"
	envPrefix     = "RESEARCH"

	// Unprefixed names kept for deployments that predate the RESEARCH_ prefix.
	gradientAPIKeyEnv  = "GRADIENT_API_KEY"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	slackTokenEnv      = "SLACK_BOT_TOKEN"
)

// Database backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Gradient      GradientConfig     `yaml:"gradient"`
	Anthropic     AnthropicConfig    `yaml:"anthropic"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Heartbeat     HeartbeatConfig    `yaml:"heartbeat"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       SourcesConfig      `yaml:"sources"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig selects the store backend. For sqlite DSN is a file path or
// ":memory:"; for postgres it is a connection URL.
type DatabaseConfig struct {
	Backend string `yaml:"backend" envconfig:"BACKEND"`
	DSN     string `yaml:"dsn" envconfig:"DSN"`
}

// GradientConfig defines how to contact the OpenAI-compatible inference API.
type GradientConfig struct {
	Endpoint     string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	APIKey       string        `yaml:"apiKey" envconfig:"API_KEY"`
	SystemPrompt string        `yaml:"systemPrompt" envconfig:"SYSTEM_PROMPT"`
	Temperature  float64       `yaml:"temperature" envconfig:"TEMPERATURE"`
	MaxTokens    int           `yaml:"maxTokens" envconfig:"MAX_TOKENS"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// AnthropicConfig is used for models whose name starts with "claude".
type AnthropicConfig struct {
	APIKey       string        `yaml:"apiKey" envconfig:"API_KEY"`
	BaseURL      string        `yaml:"baseUrl" envconfig:"BASE_URL"`
	SystemPrompt string        `yaml:"systemPrompt" envconfig:"SYSTEM_PROMPT"`
	MaxTokens    int           `yaml:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature  float64       `yaml:"temperature" envconfig:"TEMPERATURE"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// AnalysisConfig tunes the significance analyzer.
type AnalysisConfig struct {
	// EscalationThreshold is the triage score that triggers the deep pass.
	// It is independent of the stored significance_threshold.
	EscalationThreshold int `yaml:"escalationThreshold" envconfig:"ESCALATION_THRESHOLD"`
}

// HeartbeatConfig defines when the heartbeat runs and as which agent.
type HeartbeatConfig struct {
	CronExpression string `yaml:"cronExpression" envconfig:"CRON"`
	Agent          string `yaml:"agent" envconfig:"AGENT"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Slack    SlackConfig    `yaml:"slack"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken" envconfig:"BOT_TOKEN"`
	ChatID   string `yaml:"chatId" envconfig:"CHAT_ID"`
	APIBase  string `yaml:"apiBase" envconfig:"API_BASE"`
}

// SlackConfig wires a bot token and target channel.
type SlackConfig struct {
	BotToken string `yaml:"botToken" envconfig:"BOT_TOKEN"`
	Channel  string `yaml:"channel" envconfig:"CHANNEL"`
	APIURL   string `yaml:"apiUrl" envconfig:"API_URL"`
}

// SourcesConfig lists enabled research gatherers and their options.
type SourcesConfig struct {
	Enabled []string      `yaml:"enabled" envconfig:"ENABLED"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	News    NewsConfig    `yaml:"news"`
	Reddit  RedditConfig  `yaml:"reddit"`
	SEC     SECConfig     `yaml:"sec"`
}

// NewsConfig points at a Google News compatible RSS search endpoint.
type NewsConfig struct {
	BaseURL  string `yaml:"baseUrl" envconfig:"BASE_URL"`
	MaxItems int    `yaml:"maxItems" envconfig:"MAX_ITEMS"`
	Language string `yaml:"language" envconfig:"LANGUAGE"`
}

// RedditConfig points at the Reddit search JSON endpoint.
type RedditConfig struct {
	BaseURL    string   `yaml:"baseUrl" envconfig:"BASE_URL"`
	MaxPosts   int      `yaml:"maxPosts" envconfig:"MAX_POSTS"`
	UserAgent  string   `yaml:"userAgent" envconfig:"USER_AGENT"`
	Subreddits []string `yaml:"subreddits" envconfig:"SUBREDDITS"`
}

// SECConfig points at the EDGAR full-text search endpoint. EDGAR rejects
// requests without a contact address in the User-Agent.
type SECConfig struct {
	BaseURL    string        `yaml:"baseUrl" envconfig:"BASE_URL"`
	MaxFilings int           `yaml:"maxFilings" envconfig:"MAX_FILINGS"`
	UserAgent  string        `yaml:"userAgent" envconfig:"USER_AGENT"`
	Forms      []string      `yaml:"forms" envconfig:"FORMS"`
	Lookback   time.Duration `yaml:"lookback" envconfig:"LOOKBACK"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			slog.Warn("config: cannot read file, falling back to defaults", "path", path, "error", err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyLegacyEnv()
	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyLegacyEnv() {
	if v := os.Getenv(gradientAPIKeyEnv); v != "" {
		c.Gradient.APIKey = v
	}
	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.Anthropic.APIKey = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv(slackTokenEnv); v != "" {
		c.Notifications.Slack.BotToken = v
	}
}

func (c *Config) applyEnvOverrides() error {
	sections := []struct {
		prefix string
		target any
	}{
		{"DATABASE", &c.Database},
		{"GRADIENT", &c.Gradient},
		{"ANTHROPIC", &c.Anthropic},
		{"ANALYSIS", &c.Analysis},
		{"HEARTBEAT", &c.Heartbeat},
		{"TELEGRAM", &c.Notifications.Telegram},
		{"SLACK", &c.Notifications.Slack},
		{"SOURCES", &c.Sources},
		{"NEWS", &c.Sources.News},
		{"REDDIT", &c.Sources.Reddit},
		{"SEC", &c.Sources.SEC},
		{"LOG", &c.Logging},
	}
	for _, s := range sections {
		if err := envconfig.Process(envPrefix+"_"+s.prefix, s.target); err != nil {
			return fmt.Errorf("env overrides %s: %w", strings.ToLower(s.prefix), err)
		}
	}
	return nil
}

// Validate rejects settings the application cannot start with.
func (c Config) Validate() error {
	switch c.Database.Backend {
	case BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("config: unknown database backend %q (want %s or %s)", c.Database.Backend, BackendSQLite, BackendPostgres)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: database dsn is empty")
	}
	if c.Analysis.EscalationThreshold < 1 || c.Analysis.EscalationThreshold > 10 {
		return fmt.Errorf("config: escalation threshold %d outside 1-10", c.Analysis.EscalationThreshold)
	}
	if strings.TrimSpace(c.Heartbeat.CronExpression) == "" {
		return fmt.Errorf("config: heartbeat cron expression is empty")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Backend: BackendSQLite, DSN: "research.db"},
		Gradient: GradientConfig{
			Endpoint:     "https://inference.do-ai.run/v1/chat/completions",
			SystemPrompt: "You are a financial research analyst. Always respond with valid JSON.",
			Temperature:  0.3,
			MaxTokens:    1000,
			Timeout:      30 * time.Second,
		},
		Anthropic: AnthropicConfig{
			SystemPrompt: "You are a financial research analyst. Always respond with valid JSON.",
			MaxTokens:    1000,
			Temperature:  0.3,
			Timeout:      60 * time.Second,
		},
		Analysis:  AnalysisConfig{EscalationThreshold: 5},
		Heartbeat: HeartbeatConfig{CronExpression: "*/15 * * * *", Agent: "max"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIBase: "https://api.telegram.org"},
		},
		Sources: SourcesConfig{
			Enabled: []string{"news", "reddit", "sec"},
			Timeout: 15 * time.Second,
			News: NewsConfig{
				BaseURL:  "https://news.google.com/rss/search",
				MaxItems: 10,
				Language: "en-US",
			},
			Reddit: RedditConfig{
				BaseURL:    "https://www.reddit.com",
				MaxPosts:   10,
				UserAgent:  "ResearchAssistant/1.0",
				Subreddits: []string{"stocks", "investing", "wallstreetbets"},
			},
			SEC: SECConfig{
				BaseURL:    "https://efts.sec.gov/LATEST/search-index",
				MaxFilings: 10,
				UserAgent:  "ResearchAssistant admin@example.com",
				Forms:      []string{"10-K", "10-Q", "8-K", "4"},
				Lookback:   365 * 24 * time.Hour,
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
