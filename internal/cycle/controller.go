// Package cycle runs the duty cycle: reserve a cycle id, sample for a window,
// persist the averaged record, sleep, repeat.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/soil-sensor/internal/logic"
	"github.com/sweeney/soil-sensor/internal/sampling"
	"github.com/sweeney/soil-sensor/internal/status"
	"github.com/sweeney/soil-sensor/internal/store"
)

// Mode selects how the controller sleeps between cycles.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModePowerSaving Mode = "power-saving"
)

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDevelopment, ModePowerSaving:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeDevelopment, ModePowerSaving)
}

// Config is fixed for the life of a Controller.
type Config struct {
	Profile       logic.Profile
	Window        time.Duration
	Interval      time.Duration
	Sleep         time.Duration
	RecoveryDelay time.Duration
	Mode          Mode
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Profile.Validate(); err != nil {
		return err
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.Window)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.Sleep < 0 {
		return fmt.Errorf("sleep must not be negative, got %s", c.Sleep)
	}
	if c.RecoveryDelay <= 0 {
		return fmt.Errorf("recovery delay must be positive, got %s", c.RecoveryDelay)
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	return nil
}

// Collector gathers one averaged window of samples.
type Collector interface {
	Collect(window, interval time.Duration) (sampling.Result, error)
}

// Counter hands out durable cycle ids.
type Counter interface {
	Next() (uint64, error)
}

// Appender persists one cycle record.
type Appender interface {
	Append(rec logic.CycleRecord) error
}

// Deps are the collaborators of a Controller. Collector, Counter, Records and
// Sleeper are required.
type Deps struct {
	Collector Collector
	Counter   Counter
	Records   Appender
	Sleeper   Sleeper

	// Recovery waits out the recovery delay after an unexpected failure.
	// Nil selects BlockingSleeper.
	Recovery Sleeper

	// Uptime returns the cycle timestamp. Nil selects zero, which is only
	// useful in tests.
	Uptime func() uint64

	// Tracker, if set, receives every outcome.
	Tracker *status.Tracker
	Log     *slog.Logger
}

// Controller owns the duty-cycle loop.
type Controller struct {
	cfg       Config
	collector Collector
	counter   Counter
	records   Appender
	sleeper   Sleeper
	recovery  Sleeper
	uptime    func() uint64
	tracker   *status.Tracker
	log       *slog.Logger
}

// New validates cfg and builds a Controller.
func New(cfg Config, d Deps) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cycle config: %w", err)
	}
	if d.Collector == nil || d.Counter == nil || d.Records == nil || d.Sleeper == nil {
		return nil, errors.New("cycle controller needs a collector, counter, record log and sleeper")
	}
	uptime := d.Uptime
	if uptime == nil {
		uptime = func() uint64 { return 0 }
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	recovery := d.Recovery
	if recovery == nil {
		recovery = BlockingSleeper{}
	}
	return &Controller{
		cfg:       cfg,
		collector: d.Collector,
		counter:   d.Counter,
		records:   d.Records,
		sleeper:   d.Sleeper,
		recovery:  recovery,
		uptime:    uptime,
		tracker:   d.Tracker,
		log:       log,
	}, nil
}

// RunCycle performs one active phase. It returns the persisted record, or an
// error wrapping sampling.ErrNoValidSamples or store.ErrPersistence for the
// expected outcomes. Any other error is unexpected and is left to the caller.
func (c *Controller) RunCycle(ctx context.Context) (*logic.CycleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.setPhase(status.PhaseActive)

	id, err := c.counter.Next()
	if err != nil {
		if !errors.Is(err, store.ErrPersistence) {
			err = fmt.Errorf("%w: reserve cycle id: %w", store.ErrPersistence, err)
		}
		c.log.Error("cycle id not reserved, skipping cycle", "error", err)
		c.report(0, status.OutcomePersistenceFault, nil, err)
		return nil, err
	}
	ts := c.uptime()
	c.log.Info("cycle started", "cycle", id, "uptime_s", ts,
		"window", c.cfg.Window, "interval", c.cfg.Interval)

	res, err := c.collector.Collect(c.cfg.Window, c.cfg.Interval)
	if errors.Is(err, sampling.ErrNoValidSamples) {
		c.log.Warn("no valid samples, nothing recorded",
			"cycle", id, "planned", res.Planned, "elapsed", res.Elapsed)
		err = fmt.Errorf("cycle %d: %w", id, err)
		c.report(id, status.OutcomeNoSamples, nil, err)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("cycle %d: collect: %w", id, err)
	}

	rec := logic.CycleRecord{
		Cycle:       id,
		Timestamp:   ts,
		Duration:    res.Elapsed,
		Samples:     res.Valid,
		ADC:         res.ADC,
		Voltage:     res.Voltage,
		Moisture:    res.Moisture,
		State:       res.State,
		Temperature: res.Temperature,
		Humidity:    res.Humidity,
	}
	if err := c.records.Append(rec); err != nil {
		if !errors.Is(err, store.ErrPersistence) {
			err = fmt.Errorf("%w: append record: %w", store.ErrPersistence, err)
		}
		err = fmt.Errorf("cycle %d: %w", id, err)
		c.log.Error("record not persisted", "cycle", id, "error", err)
		c.report(id, status.OutcomePersistenceFault, nil, err)
		return nil, err
	}

	c.log.Info("cycle recorded",
		"cycle", id,
		"samples", rec.Samples,
		"planned", res.Planned,
		"moisture_pct", rec.Moisture,
		"state", rec.State,
		"temperature_c", logic.Round2(rec.Temperature),
		"humidity_pct", logic.Round2(rec.Humidity),
		"duration", rec.Duration.Round(100*time.Millisecond),
	)
	c.report(id, status.OutcomeRecorded, &rec, nil)
	return &rec, nil
}

// Run loops until ctx is cancelled. Cancellation is honoured between cycles
// and while sleeping; a collection window in progress always completes.
// Unexpected cycle errors are logged and followed by the recovery delay
// alone: the sleep phase is skipped, so in power-saving mode the board stays
// up and the next cycle starts once the delay has passed.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info("duty cycle started",
		"mode", c.cfg.Mode,
		"window", c.cfg.Window,
		"interval", c.cfg.Interval,
		"sleep", c.cfg.Sleep,
	)

	for {
		if ctx.Err() != nil {
			c.log.Info("interrupted, stopping duty cycle")
			return nil
		}

		_, err := c.safeCycle(ctx)
		switch {
		case err == nil,
			errors.Is(err, sampling.ErrNoValidSamples),
			errors.Is(err, store.ErrPersistence):
			// reported by RunCycle
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			continue
		default:
			c.log.Error("unexpected cycle failure", "error", err)
			c.report(0, status.OutcomeUnexpectedFault, nil, err)
			c.setPhase(status.PhaseRecovering)
			c.log.Info("recovering", "delay", c.cfg.RecoveryDelay)
			if err := c.recovery.Sleep(ctx, c.cfg.RecoveryDelay); err != nil && ctx.Err() == nil {
				c.log.Error("recovery wait failed", "error", err)
			}
			continue
		}

		c.setPhase(status.PhaseSleeping)
		c.log.Info("sleeping", "mode", c.cfg.Mode, "duration", c.cfg.Sleep)
		if err := c.sleeper.Sleep(ctx, c.cfg.Sleep); err != nil && ctx.Err() == nil {
			c.log.Error("sleep failed", "error", err)
		}
	}
}

// safeCycle runs one cycle, turning a panic into an unexpected error so the
// loop survives it.
func (c *Controller) safeCycle(ctx context.Context) (rec *logic.CycleRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("cycle panic: %v", r)
		}
	}()
	return c.RunCycle(ctx)
}

func (c *Controller) setPhase(p status.Phase) {
	if c.tracker != nil {
		c.tracker.SetPhase(p)
	}
}

func (c *Controller) report(id uint64, outcome status.Outcome, rec *logic.CycleRecord, err error) {
	if c.tracker != nil {
		c.tracker.CycleDone(id, outcome, rec, err)
	}
}
