package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ResearchAssistant/internal/analysis"
	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/gather"
	"ResearchAssistant/internal/infrastructure/llm"
	"ResearchAssistant/internal/infrastructure/news"
	"ResearchAssistant/internal/infrastructure/scheduler"
	"ResearchAssistant/internal/infrastructure/slack"
	"ResearchAssistant/internal/infrastructure/sec"
	"ResearchAssistant/internal/infrastructure/social"
	"ResearchAssistant/internal/infrastructure/storage"
	"ResearchAssistant/internal/infrastructure/telegram"
	"ResearchAssistant/internal/logging"
	"ResearchAssistant/internal/ports"
	"ResearchAssistant/internal/schedule"
	"ResearchAssistant/internal/usecase"
	"ResearchAssistant/internal/watchlist"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	store  *storage.Store

	Schedules *schedule.Service
	Watchlist *watchlist.Service
	Analyzer  *analysis.Analyzer
	Heartbeat *usecase.Heartbeat
	Log       ports.ResearchLog
}

// New opens the store, applies migrations and builds every service.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(ctx, cfg.Database, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	notifiers, err := buildNotifiers(cfg.Notifications)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	registry := gather.NewRegistry()
	registry.Register(news.NewGatherer(cfg.Sources.News, nil))
	registry.Register(social.NewRedditGatherer(cfg.Sources.Reddit, nil))
	registry.Register(sec.NewGatherer(cfg.Sources.SEC, nil))
	collector := gather.NewCollector(registry, cfg.Sources.Enabled, cfg.Sources.Timeout, baseLogger.With("component", "gather"))

	models := llm.NewRouter(llm.NewAnthropicClient(cfg.Anthropic), llm.NewGradientClient(cfg.Gradient))
	analyzer := analysis.NewAnalyzer(models, analysis.Options{
		EscalationThreshold: cfg.Analysis.EscalationThreshold,
		Logger:              baseLogger.With("component", "analysis"),
	})

	schedules := schedule.NewService(store, store, baseLogger.With("component", "schedule"))
	tickers := watchlist.NewService(store, store, baseLogger.With("component", "watchlist"))

	heartbeat := usecase.NewHeartbeat(usecase.HeartbeatDeps{
		Watchlist: tickers,
		Source:    collector,
		Analyzer:  analyzer,
		Schedules: schedules,
		Log:       store,
		Notifiers: notifiers,
		Agent:     domain.Agent(cfg.Heartbeat.Agent),
		Logger:    baseLogger.With("component", "heartbeat"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		Schedules: schedules,
		Watchlist: tickers,
		Analyzer:  analyzer,
		Heartbeat: heartbeat,
		Log:       store,
	}, nil
}

func buildNotifiers(cfg config.NotificationConfig) ([]ports.Notifier, error) {
	var out []ports.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		out = append(out, telegram.NewNotifier(cfg.Telegram))
	}
	if cfg.Slack.BotToken != "" {
		n, err := slack.NewNotifier(cfg.Slack)
		if err != nil {
			return nil, fmt.Errorf("configure slack: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Run drives the heartbeat on its cron expression until ctx is cancelled.
func (a *Application) Run(ctx context.Context, runOnStart bool) error {
	opts := []scheduler.Option{scheduler.WithLogger(a.logger.With("component", "cron"))}
	if runOnStart {
		opts = append(opts, scheduler.WithRunOnStart())
	}
	driver, err := scheduler.NewCronScheduler(a.cfg.Heartbeat.CronExpression, opts...)
	if err != nil {
		return err
	}

	return a.Heartbeat.Serve(ctx, driver, shutdownTimeout)
}

// Close releases the store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Backend names the store backend in use.
func (a *Application) Backend() string {
	if a.store == nil {
		return ""
	}
	return a.store.Backend()
}

// Migrate applies pending schema migrations.
func (a *Application) Migrate(ctx context.Context) error {
	return a.store.Migrate(ctx)
}

// HeartbeatAgent is the agent the heartbeat checks schedules for.
func (a *Application) HeartbeatAgent() domain.Agent {
	return domain.Agent(a.cfg.Heartbeat.Agent)
}
