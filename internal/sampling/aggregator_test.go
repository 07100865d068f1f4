package sampling

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/soil-sensor/internal/logic"
	"github.com/sweeney/soil-sensor/internal/sensor"
)

var testProfile = logic.Profile{DryReading: 49525, SaturatedReading: 20947}

var dhtTimeout = fmt.Errorf("dht22: short frame: %w", sensor.ErrSensorFault)

// fakeTime is a clock whose sleep advances now, so windows run instantly.
type fakeTime struct {
	t      time.Time
	sleeps []time.Duration
}

func newFakeTime() *fakeTime {
	return &fakeTime{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeTime) now() time.Time { return f.t }

func (f *fakeTime) sleep(d time.Duration) {
	f.sleeps = append(f.sleeps, d)
	f.t = f.t.Add(d)
}

func newTestAggregator(r sensor.Reader, ft *fakeTime) *Aggregator {
	return New(r, testProfile, ft.now, ft.sleep, nil)
}

func ok(adc uint16, temp, hum float64) sensor.Sample {
	return sensor.Sample{ADC: adc, Air: sensor.Atmospheric{Temperature: temp, Humidity: hum}}
}

func TestPlannedSamples(t *testing.T) {
	assert.Equal(t, 5, PlannedSamples(10*time.Second, 2*time.Second))
	assert.Equal(t, 5, PlannedSamples(11*time.Second, 2*time.Second))
	assert.Equal(t, 1, PlannedSamples(time.Second, 2*time.Second))
	assert.Equal(t, 1, PlannedSamples(0, 2*time.Second))
	assert.Equal(t, 1, PlannedSamples(10*time.Second, 0))
}

func TestCollectAllTicksSucceed(t *testing.T) {
	ft := newFakeTime()
	r := sensor.NewFakeReader([]sensor.Sample{ok(35236, 20, 50)})
	a := newTestAggregator(r, ft)

	res, err := a.Collect(10*time.Second, 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 5, r.AtmosphericReads)
	assert.Equal(t, 5, res.Planned)
	assert.Equal(t, 5, res.Valid)
	assert.Equal(t, 10*time.Second, res.Elapsed)
	assert.Len(t, ft.sleeps, 5)
	assert.Equal(t, 35236.0, res.ADC)
	assert.Equal(t, 50.0, res.Moisture)
	assert.Equal(t, logic.StateIntermediate, res.State)
	assert.InDelta(t, 35236.0/65535*3.3, res.Voltage, 1e-9)
}

func TestCollectPartialFailureUsesOnlySuccessfulTicks(t *testing.T) {
	ft := newFakeTime()
	r := sensor.NewFakeReader([]sensor.Sample{
		{ADC: 10000, Err: dhtTimeout},
		ok(20947, 20, 40),
		{ADC: 10000, Err: dhtTimeout},
		ok(49525, 30, 60),
		{ADC: 10000, Err: dhtTimeout},
	})
	a := newTestAggregator(r, ft)

	res, err := a.Collect(10*time.Second, 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Planned)
	assert.Equal(t, 2, res.Valid)
	assert.Equal(t, (20947.0+49525.0)/2, res.ADC)
	assert.Equal(t, 25.0, res.Temperature)
	assert.Equal(t, 50.0, res.Humidity)
	// mean of 100% and 0%
	assert.Equal(t, 50.0, res.Moisture)
	assert.Equal(t, logic.StateIntermediate, res.State)
}

func TestCollectStateFromAveragedPercentage(t *testing.T) {
	ft := newFakeTime()
	// two wet ticks and one bone-dry tick: majority says wet, the mean (66.7) says intermediate
	r := sensor.NewFakeReader([]sensor.Sample{
		ok(20947, 20, 50),
		ok(20947, 20, 50),
		ok(49525, 20, 50),
	})
	a := newTestAggregator(r, ft)

	res, err := a.Collect(3*time.Second, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 66.7, res.Moisture)
	assert.Equal(t, logic.StateIntermediate, res.State)
}

func TestCollectAllTicksFail(t *testing.T) {
	ft := newFakeTime()
	r := sensor.NewFakeReader([]sensor.Sample{{ADC: 30000, Err: dhtTimeout}})
	a := newTestAggregator(r, ft)

	res, err := a.Collect(10*time.Second, 2*time.Second)
	assert.ErrorIs(t, err, ErrNoValidSamples)
	assert.Equal(t, 0, res.Valid)
	assert.Equal(t, 5, r.AtmosphericReads, "window must not abort on sensor faults")
}

func TestCollectShortWindowTakesOneSample(t *testing.T) {
	ft := newFakeTime()
	r := sensor.NewFakeReader([]sensor.Sample{ok(30000, 20, 50)})
	a := newTestAggregator(r, ft)

	res, err := a.Collect(500*time.Millisecond, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Valid)
	assert.Equal(t, 1, r.AtmosphericReads)
}

func TestCollectUnexpectedErrorAbortsWindow(t *testing.T) {
	ft := newFakeTime()
	r := sensor.NewFakeReader([]sensor.Sample{ok(30000, 20, 50)})
	r.ReadError = errors.New("bus wedged")
	a := newTestAggregator(r, ft)

	_, err := a.Collect(10*time.Second, 2*time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoValidSamples)
	assert.Equal(t, 1, r.MoistureReads)
}

func TestCollectMoistureFaultSkipsTick(t *testing.T) {
	ft := newFakeTime()
	r := sensor.NewFakeReader([]sensor.Sample{ok(30000, 20, 50)})
	r.ReadError = fmt.Errorf("read adc: nack: %w", sensor.ErrSensorFault)
	a := newTestAggregator(r, ft)

	_, err := a.Collect(4*time.Second, 2*time.Second)
	assert.ErrorIs(t, err, ErrNoValidSamples)
	assert.Equal(t, 2, r.MoistureReads)
}

func TestCollectOnSample(t *testing.T) {
	ft := newFakeTime()
	r := sensor.NewFakeReader([]sensor.Sample{
		ok(35236, 20, 50),
		{ADC: 1, Err: dhtTimeout},
		ok(20947, 21, 51),
	})
	a := newTestAggregator(r, ft)

	var ticks []Tick
	a.OnSample = func(tk Tick) { ticks = append(ticks, tk) }

	_, err := a.Collect(3*time.Second, time.Second)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, 1, ticks[0].Index)
	assert.Equal(t, 50.0, ticks[0].Moisture.Percentage)
	assert.Equal(t, 3, ticks[1].Index)
	assert.Equal(t, 3, ticks[1].Planned)
	assert.Equal(t, logic.StateWet, ticks[1].Moisture.State)
}
