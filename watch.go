package modelshelf

import (
	"context"
	"time"

	"github.com/modelshelf/modelshelf/pkg/constants"
	"github.com/modelshelf/modelshelf/pkg/logging"
)

// WatchOptions configures continuous mode.
type WatchOptions struct {
	// Interval is the pause between runs. Zero means the default of 3s.
	Interval time.Duration
	// MaxDuration stops the loop once this much time has passed since it
	// started, checked after each run. Zero means no limit.
	MaxDuration time.Duration
	// OnRun is called after every run.
	OnRun func(*SyncResult, error)
}

// Watch runs Sync repeatedly. Cancelling ctx stops scheduling further runs
// but never interrupts a run in progress. A failed run is logged and the
// loop continues.
func (c *client) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = constants.DefaultPollInterval
	}
	logger := logging.FromContext(ctx)
	start := time.Now()

	logger.Info().
		Dur("interval", opts.Interval).
		Dur("max_duration", opts.MaxDuration).
		Msg("Watching channel")

	for runs := 1; ; runs++ {
		if ctx.Err() != nil {
			return nil
		}

		res, err := c.Sync(context.WithoutCancel(ctx))
		if err != nil {
			logger.Error().Err(err).Int("run", runs).Msg("Sync run failed")
		}
		if opts.OnRun != nil {
			opts.OnRun(res, err)
		}

		if opts.MaxDuration > 0 && time.Since(start) >= opts.MaxDuration {
			logger.Info().Int("runs", runs).Msg("Maximum watch duration reached")
			return nil
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info().Int("runs", runs).Msg("Watch stopped")
			return nil
		case <-c.nudge:
			timer.Stop()
			logger.Debug().Msg("Run requested")
		case <-timer.C:
		}
	}
}

// Nudge wakes a sleeping Watch loop. Requests made while a run is in
// progress coalesce into a single follow-up run.
func (c *client) Nudge() {
	select {
	case c.nudge <- struct{}{}:
	default:
	}
}
