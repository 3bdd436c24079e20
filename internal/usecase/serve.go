package usecase

import (
	"context"
	"fmt"
	"time"

	"ResearchAssistant/internal/ports"
)

// Serve hands Tick to driver and blocks until ctx is cancelled. It then stops
// the driver, giving an in-flight round up to stopTimeout to finish.
func (h *Heartbeat) Serve(ctx context.Context, driver ports.Scheduler, stopTimeout time.Duration) error {
	if driver == nil {
		return fmt.Errorf("heartbeat driver is not configured")
	}

	job := func(trigger time.Time) {
		if ctx.Err() != nil {
			h.logger.Debug("heartbeat trigger after shutdown ignored", "trigger", trigger.UTC().Format(time.RFC3339))
			return
		}
		h.Tick(ctx, trigger)
	}
	if err := driver.Start(ctx, job); err != nil {
		return fmt.Errorf("start heartbeat driver: %w", err)
	}
	h.logger.Info("heartbeat serving", "agent", h.agent)

	<-ctx.Done()
	h.logger.Info("heartbeat shutting down", "timeout", stopTimeout)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	if err := driver.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop heartbeat driver: %w", err)
	}
	return nil
}
