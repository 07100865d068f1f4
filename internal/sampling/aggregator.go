// Package sampling drives repeated sensor reads over a collection window and
// averages the successful ones into a single Result.
package sampling

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/soil-sensor/internal/logic"
	"github.com/sweeney/soil-sensor/internal/sensor"
)

// ErrNoValidSamples means every tick of the window failed. No record may be
// persisted for such a window.
var ErrNoValidSamples = errors.New("no valid samples in window")

// Result is the consolidated average of one collection window.
type Result struct {
	Elapsed     time.Duration // measured, not assumed
	Planned     int
	Valid       int
	ADC         float64 // mean raw count
	Voltage     float64
	Moisture    float64 // mean of per-sample percentages, one decimal
	State       logic.State
	Temperature float64
	Humidity    float64
}

// Tick is one successful sample, reported through OnSample.
type Tick struct {
	Index    int // 1-based
	Planned  int
	Sample   logic.RawSample
	Moisture logic.MoistureReading
}

// Aggregator collects and averages sensor samples.
type Aggregator struct {
	reader  sensor.Reader
	profile logic.Profile
	now     func() time.Time
	sleep   func(time.Duration)
	log     *slog.Logger

	// OnSample, if set, is called for every successful tick.
	OnSample func(Tick)
}

// New creates an Aggregator. now and sleep are injectable for tests; nil
// selects time.Now and time.Sleep.
func New(reader sensor.Reader, profile logic.Profile, now func() time.Time, sleep func(time.Duration), log *slog.Logger) *Aggregator {
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{
		reader:  reader,
		profile: profile,
		now:     now,
		sleep:   sleep,
		log:     log,
	}
}

// PlannedSamples is the number of ticks a window performs, never less than one.
func PlannedSamples(window, interval time.Duration) int {
	if interval <= 0 {
		return 1
	}
	n := int(window / interval)
	if n < 1 {
		return 1
	}
	return n
}

// Collect samples both sensors once per interval for the length of the window.
// A tick failing with sensor.ErrSensorFault is skipped; any other read error
// aborts the window.
func (a *Aggregator) Collect(window, interval time.Duration) (Result, error) {
	planned := PlannedSamples(window, interval)
	start := a.now()

	var valid int
	var sumADC, sumTemp, sumHum, sumPct float64
	for i := 1; i <= planned; i++ {
		s, err := a.read()
		switch {
		case errors.Is(err, sensor.ErrSensorFault):
			a.log.Warn("sample skipped", "tick", i, "planned", planned, "error", err)
		case err != nil:
			return Result{}, fmt.Errorf("tick %d: %w", i, err)
		default:
			m := logic.Map(s.ADC, a.profile)
			valid++
			sumADC += float64(s.ADC)
			sumTemp += s.Temperature
			sumHum += s.Humidity
			sumPct += m.Percentage
			if a.OnSample != nil {
				a.OnSample(Tick{Index: i, Planned: planned, Sample: s, Moisture: m})
			}
		}
		a.sleep(interval)
	}

	elapsed := a.now().Sub(start)
	if valid == 0 {
		return Result{Elapsed: elapsed, Planned: planned}, ErrNoValidSamples
	}

	n := float64(valid)
	meanADC := sumADC / n
	moisture := logic.Round1(sumPct / n)
	return Result{
		Elapsed:     elapsed,
		Planned:     planned,
		Valid:       valid,
		ADC:         meanADC,
		Voltage:     logic.Voltage(meanADC),
		Moisture:    moisture,
		State:       logic.ToState(moisture),
		Temperature: sumTemp / n,
		Humidity:    sumHum / n,
	}, nil
}

func (a *Aggregator) read() (logic.RawSample, error) {
	raw, err := a.reader.ReadMoistureRaw()
	if err != nil {
		return logic.RawSample{}, fmt.Errorf("read moisture: %w", err)
	}
	air, err := a.reader.ReadAtmospheric()
	if err != nil {
		return logic.RawSample{}, fmt.Errorf("read atmospheric: %w", err)
	}
	return logic.RawSample{ADC: raw, Temperature: air.Temperature, Humidity: air.Humidity}, nil
}
