package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := NewCronScheduler("every now and then")
	assert.Error(t, err)

	_, err = NewCronScheduler("*/15 * * * *")
	assert.NoError(t, err)
}

func TestRunOnStartFiresImmediately(t *testing.T) {
	t.Parallel()

	sched, err := NewCronScheduler("0 0 1 1 *", WithRunOnStart())
	require.NoError(t, err)

	fired := make(chan time.Time, 1)
	require.NoError(t, sched.Start(context.Background(), func(at time.Time) { fired <- at }))
	t.Cleanup(func() { _ = sched.Stop(context.Background()) })

	select {
	case at := <-fired:
		assert.WithinDuration(t, time.Now(), at, 5*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run on start")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	sched, err := NewCronScheduler("@every 1h")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, sched.Start(ctx, func(time.Time) {}))
	require.NoError(t, sched.Start(ctx, func(time.Time) {}))

	require.NoError(t, sched.Stop(context.Background()))
	require.NoError(t, sched.Stop(context.Background()))
	cancel()
}
