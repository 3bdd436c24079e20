package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ResearchAssistant/internal/alert"
	"ResearchAssistant/internal/analysis"
	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

// TickerCatalog is the watchlist surface the heartbeat reads.
type TickerCatalog interface {
	List(ctx context.Context) ([]domain.Ticker, error)
	EffectiveRules(ctx context.Context, symbol string) (domain.RuleSet, error)
	Settings(ctx context.Context) (domain.GlobalSettings, error)
}

// Analyzer scores one research document.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) domain.Analysis
}

// ScheduleRunner reports due schedules and records their runs.
type ScheduleRunner interface {
	Due(ctx context.Context, now time.Time, agent domain.Agent) ([]domain.Schedule, error)
	MarkRun(ctx context.Context, id int64, agent domain.Agent) error
}

// HeartbeatDeps wires all collaborators into the heartbeat.
type HeartbeatDeps struct {
	Watchlist TickerCatalog
	Source    ports.ResearchSource
	Analyzer  Analyzer
	Schedules ScheduleRunner
	Log       ports.ResearchLog
	Notifiers []ports.Notifier
	Agent     domain.Agent
	Logger    *slog.Logger
}

// Heartbeat implements one research round over the watchlist plus the
// dispatch of due recurring schedules.
type Heartbeat struct {
	watchlist TickerCatalog
	source    ports.ResearchSource
	analyzer  Analyzer
	schedules ScheduleRunner
	log       ports.ResearchLog
	notifiers []ports.Notifier
	agent     domain.Agent
	logger    *slog.Logger
	newRunID  func() string
}

// NewHeartbeat constructs the orchestration component.
func NewHeartbeat(deps HeartbeatDeps) *Heartbeat {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Heartbeat{
		watchlist: deps.Watchlist,
		source:    deps.Source,
		analyzer:  deps.Analyzer,
		schedules: deps.Schedules,
		log:       deps.Log,
		notifiers: deps.Notifiers,
		agent:     deps.Agent,
		logger:    logger,
		newRunID:  uuid.NewString,
	}
}

// Report is the outcome of one research round.
type Report struct {
	RunID    string
	Outcomes []alert.Outcome
	Summary  string
}

// Tick runs due schedules and then the research round. It is the job the
// cron driver fires.
func (h *Heartbeat) Tick(ctx context.Context, trigger time.Time) {
	h.logger.Info("heartbeat tick", "trigger", trigger.UTC().Format(time.RFC3339))
	if h.schedules != nil {
		if _, err := h.RunDueSchedules(ctx, h.agent); err != nil {
			h.logger.Error("run due schedules failed", "error", err)
		}
	}
	if _, err := h.Run(ctx); err != nil {
		h.logger.Error("heartbeat round failed", "error", err)
	}
}

// Run analyzes every tracked ticker, alerts on significant verdicts and
// delivers the batch summary.
func (h *Heartbeat) Run(ctx context.Context) (Report, error) {
	if h.watchlist == nil || h.source == nil || h.analyzer == nil {
		return Report{}, fmt.Errorf("heartbeat is not fully configured")
	}

	settings, err := h.watchlist.Settings(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load settings: %w", err)
	}
	tickers, err := h.watchlist.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list watchlist: %w", err)
	}

	report := Report{RunID: h.newRunID()}
	logger := h.logger.With("run_id", report.RunID)
	logger.Info("heartbeat started", "tickers", len(tickers))

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Outcomes = append(report.Outcomes, h.checkTicker(ctx, logger, report.RunID, ticker, settings))
	}

	report.Summary = alert.FormatSummary(report.Outcomes)
	h.publish(ctx, report.Summary)
	logger.Info("heartbeat finished", "tickers", len(report.Outcomes))
	return report, nil
}

// checkTicker never fails the round: a ticker whose rules or research cannot
// be loaded becomes a failed analysis in the summary.
func (h *Heartbeat) checkTicker(ctx context.Context, logger *slog.Logger, runID string, ticker domain.Ticker, settings domain.GlobalSettings) alert.Outcome {
	result := h.analyzeTicker(ctx, logger, ticker, settings)


	alerted := alert.ShouldAlert(result, settings.SignificanceThreshold)
	if alerted {
		h.publish(ctx, alert.Format(result))
	}
	logger.Debug("ticker checked", "ticker", ticker.Symbol, "success", result.Success, "score", result.Score(), "alerted", alerted)

	h.record(ctx, runID, result, alerted)
	return alert.Outcome{Analysis: result, Alerted: alerted}
}

func (h *Heartbeat) analyzeTicker(ctx context.Context, logger *slog.Logger, ticker domain.Ticker, settings domain.GlobalSettings) domain.Analysis {
	failed := func(format string, err error) domain.Analysis {
		return domain.Analysis{
			Ticker:  ticker.Symbol,
			Company: ticker.Name,
			Failure: domain.FailureTransport,
			Error:   fmt.Sprintf(format, err),
		}
	}

	rules, err := h.watchlist.EffectiveRules(ctx, ticker.Symbol)
	if err != nil {
		logger.Warn("load effective rules failed", "ticker", ticker.Symbol, "error", err)
		return failed("effective rules: %v", err)
	}
	doc, err := h.source.Gather(ctx, ticker)
	if err != nil {
		logger.Warn("gather research failed", "ticker", ticker.Symbol, "error", err)
		return failed("gather research: %v", err)
	}
	return h.analyzer.Analyze(ctx, analysis.Request{
		Ticker:   ticker.Symbol,
		Company:  ticker.Name,
		Document: doc.Markdown,
		Rules:    rules,
		Settings: settings,
	})
}

type analysisMetadata struct {
	RunID   string            `json:"run_id"`
	Success bool              `json:"success"`
	Score   int               `json:"score"`
	Pass    domain.Pass       `json:"pass,omitempty"`
	Model   string            `json:"model,omitempty"`
	Tier    domain.Tier       `json:"tier,omitempty"`
	Failure domain.FailureTag `json:"failure,omitempty"`
}

func (h *Heartbeat) record(ctx context.Context, runID string, result domain.Analysis, alerted bool) {
	if h.log == nil {
		return
	}
	meta := analysisMetadata{RunID: runID, Success: result.Success, Score: result.Score(), Failure: result.Failure}
	summary := result.Error
	if result.Verdict != nil {
		meta.Pass = result.Verdict.Pass
		meta.Model = result.Verdict.Model
		meta.Tier = result.Verdict.Tier
		summary = result.Verdict.Summary
	}
	eventType := domain.EventAnalysis
	if alerted {
		eventType = domain.EventAlert
	}
	h.logEvent(ctx, domain.ResearchEvent{
		Symbol:  result.Ticker,
		Agent:   string(h.agent),
		Type:    eventType,
		Summary: summary,
	}, meta)
}

func (h *Heartbeat) logEvent(ctx context.Context, event domain.ResearchEvent, meta any) {
	raw, err := json.Marshal(meta)
	if err != nil {
		h.logger.Warn("encode research event metadata", "error", err)
	} else {
		event.Metadata = raw
	}
	if _, err := h.log.LogEvent(ctx, event); err != nil {
		h.logger.Warn("record research event failed", "symbol", event.Symbol, "type", event.Type, "error", err)
	}
}

// RunDueSchedules delivers the prompt of every schedule due for agent and
// marks it run. A schedule whose prompt reached no notifier stays due.
func (h *Heartbeat) RunDueSchedules(ctx context.Context, agent domain.Agent) ([]domain.Schedule, error) {
	if h.schedules == nil {
		return nil, fmt.Errorf("schedules are not configured")
	}
	due, err := h.schedules.Due(ctx, time.Time{}, agent)
	if err != nil {
		return nil, fmt.Errorf("load due schedules: %w", err)
	}

	runID := h.newRunID()
	var ran []domain.Schedule
	for _, sched := range due {
		message := fmt.Sprintf("⏰ **%s**\n\n%s", sched.Name, sched.Prompt)
		if delivered := h.publish(ctx, message); len(h.notifiers) > 0 && delivered == 0 {
			h.logger.Warn("scheduled report not delivered, leaving it due", "id", sched.ID, "name", sched.Name)
			continue
		}
		if err := h.schedules.MarkRun(ctx, sched.ID, agent); err != nil {
			return ran, err
		}
		ran = append(ran, sched)

		runner := agent
		if runner == "" {
			runner = sched.Agent
		}
		if h.log != nil {
			h.logEvent(ctx, domain.ResearchEvent{
				Agent:   string(runner),
				Type:    domain.EventScheduledRun,
				Summary: sched.Name,
			}, map[string]any{"run_id": runID, "schedule_id": sched.ID})
		}
		h.logger.Info("scheduled report dispatched", "id", sched.ID, "name", sched.Name, "agent", runner)
	}
	return ran, nil
}

// publish sends message to every notifier and returns how many accepted it.
func (h *Heartbeat) publish(ctx context.Context, message string) int {
	delivered := 0
	for _, n := range h.notifiers {
		if err := n.Publish(ctx, message); err != nil {
			h.logger.Warn("notification failed", "notifier", n.Name(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}
