package ports

import (
	"context"
	"encoding/json"
	"time"

	"ResearchAssistant/internal/domain"
)

// ModelClient sends a single prompt to a language model and returns its text.
type ModelClient interface {
	// Ready reports whether the client can serve model without any network
	// call; it returns domain.ErrMissingCredential when no key is configured.
	Ready(model string) error
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// ScheduleRepository persists recurring report definitions and run markers.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, s domain.Schedule) (int64, error)
	GetSchedule(ctx context.Context, id int64) (domain.Schedule, error)
	ListSchedules(ctx context.Context, filter domain.ScheduleFilter) ([]domain.Schedule, error)
	UpdateSchedule(ctx context.Context, id int64, patch domain.SchedulePatch) error
	DeleteSchedule(ctx context.Context, id int64) (bool, error)
	CountSchedules(ctx context.Context) (int, error)
	SetLastRun(ctx context.Context, id int64, at time.Time) error
	RecordAgentRun(ctx context.Context, id int64, agent domain.Agent, runDate string, at time.Time) error
	HasAgentRun(ctx context.Context, id int64, agent domain.Agent, runDate string) (bool, error)
}

// SettingsRepository stores JSON-encoded values under setting keys.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key domain.SettingKey) (json.RawMessage, bool, error)
	SetSetting(ctx context.Context, key domain.SettingKey, value json.RawMessage) error
}

// WatchlistRepository persists tracked tickers and their rule overrides.
type WatchlistRepository interface {
	AddTicker(ctx context.Context, t domain.Ticker) (int64, error)
	FindTicker(ctx context.Context, symbol string) (domain.Ticker, bool, error)
	ListTickers(ctx context.Context) ([]domain.Ticker, error)
	RemoveTicker(ctx context.Context, symbol string) (bool, error)
	SetTickerRules(ctx context.Context, symbol string, rules domain.RuleSet) error
	UpdateDirective(ctx context.Context, symbol string, patch domain.DirectivePatch) error
}

// ResearchLog records research activity for audit and briefings.
type ResearchLog interface {
	LogEvent(ctx context.Context, event domain.ResearchEvent) (int64, error)
	RecentEvents(ctx context.Context, filter domain.EventFilter) ([]domain.ResearchEvent, error)
}

// ResearchSource assembles the research document for one ticker.
type ResearchSource interface {
	Gather(ctx context.Context, ticker domain.Ticker) (domain.ResearchDocument, error)
}

// Notifier delivers rendered messages to a chat channel.
type Notifier interface {
	Name() string
	Publish(ctx context.Context, message string) error
}

// Scheduler controls when the heartbeat executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
