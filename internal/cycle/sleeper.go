package cycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweeney/soil-sensor/internal/power"
)

// Sleeper implements the sleep phase between cycles.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// BlockingSleeper waits in-process. Used in development mode and as the
// fallback when the board cannot power off.
type BlockingSleeper struct{}

// Sleep waits for d or until ctx is done.
func (BlockingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DeepSleeper hands the sleep phase to a power transition. On real hardware
// the call does not return; the board powers off and the next cycle starts
// from a fresh process.
type DeepSleeper struct {
	Transition power.Transition

	// Fallback is used when the transition fails. Nil selects BlockingSleeper.
	Fallback Sleeper
	Log      *slog.Logger
}

// Sleep enters the power transition, degrading to Fallback on failure so the
// cycle cadence is kept.
func (s DeepSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.Transition.Enter(d)
	if err == nil {
		return nil
	}

	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Warn("power-saving sleep failed, sleeping in-process", "duration", d, "error", err)

	fallback := s.Fallback
	if fallback == nil {
		fallback = BlockingSleeper{}
	}
	return fallback.Sleep(ctx, d)
}

// NewSleeper returns the sleeper for mode. t is only used in power-saving mode.
func NewSleeper(mode Mode, t power.Transition, log *slog.Logger) Sleeper {
	if mode == ModePowerSaving && t != nil {
		return DeepSleeper{Transition: t, Log: log}
	}
	return BlockingSleeper{}
}
