package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

type fakeDriver struct {
	startErr error
	stopErr  error
	started  chan struct{}

	mu          sync.Mutex
	job         func(time.Time)
	stopped     bool
	hadDeadline bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{started: make(chan struct{})}
}

func (d *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.mu.Lock()
	d.job = job
	d.mu.Unlock()
	close(d.started)
	return nil
}

func (d *fakeDriver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	_, d.hadDeadline = ctx.Deadline()
	return d.stopErr
}

func (d *fakeDriver) fire(at time.Time) {
	d.mu.Lock()
	job := d.job
	d.mu.Unlock()
	job(at)
}

func emptyHeartbeat(chat *fakeNotifier) *Heartbeat {
	return NewHeartbeat(HeartbeatDeps{
		Watchlist: &fakeCatalog{settings: domain.DefaultGlobalSettings()},
		Source:    fakeSource{},
		Analyzer:  &fakeAnalyzer{},
		Notifiers: []ports.Notifier{chat},
	})
}

func TestServeRunsTicksUntilCancelled(t *testing.T) {
	t.Parallel()

	chat := &fakeNotifier{name: "chat"}
	hb := emptyHeartbeat(chat)
	driver := newFakeDriver()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hb.Serve(ctx, driver, time.Second) }()

	<-driver.started
	driver.fire(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	cancel()
	require.NoError(t, <-done)

	driver.fire(time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC))

	chat.mu.Lock()
	defer chat.mu.Unlock()
	assert.Len(t, chat.messages, 1, "triggers after shutdown are ignored")

	driver.mu.Lock()
	defer driver.mu.Unlock()
	assert.True(t, driver.stopped)
	assert.True(t, driver.hadDeadline)
}

func TestServeReportsDriverErrors(t *testing.T) {
	t.Parallel()

	hb := emptyHeartbeat(&fakeNotifier{name: "chat"})

	err := hb.Serve(context.Background(), nil, time.Second)
	assert.Error(t, err)

	driver := newFakeDriver()
	driver.startErr = errors.New("bad spec")
	err = hb.Serve(context.Background(), driver, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start heartbeat driver")

	driver = newFakeDriver()
	driver.stopErr = context.DeadlineExceeded
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = hb.Serve(ctx, driver, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
