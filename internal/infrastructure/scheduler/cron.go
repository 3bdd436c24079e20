package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ResearchAssistant/internal/ports"
)

// CronScheduler drives the heartbeat from a five-field cron expression.
// Overlapping runs are skipped so only one heartbeat is active at a time.
type CronScheduler struct {
	spec       string
	runOnStart bool
	logger     *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// Option customises a CronScheduler.
type Option func(*CronScheduler)

// WithRunOnStart fires the job once as soon as Start is called.
func WithRunOnStart() Option {
	return func(c *CronScheduler) { c.runOnStart = true }
}

// WithLogger sets the logger used for skipped runs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CronScheduler) { c.logger = logger }
}

// NewCronScheduler validates spec and builds a stopped scheduler.
func NewCronScheduler(spec string, opts ...Option) (*CronScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	c := &CronScheduler{spec: spec, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start registers job and begins firing it. Calling Start twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	runner := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{c.logger})),
	)
	id, err := runner.AddFunc(c.spec, func() { job(time.Now()) })
	if err != nil {
		return fmt.Errorf("schedule heartbeat: %w", err)
	}
	runner.Start()
	c.cron = runner
	c.logger.Info("heartbeat scheduled", "spec", c.spec, "next", runner.Entry(id).Next)

	if c.runOnStart {
		entry := runner.Entry(id)
		go entry.WrappedJob.Run()
	}

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop halts the scheduler and waits for a running job or ctx, whichever
// comes first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	c.cron = nil
	c.mu.Unlock()
	if runner == nil {
		return nil
	}

	done := runner.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
