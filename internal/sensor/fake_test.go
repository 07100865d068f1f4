package sensor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Reader = (*FakeReader)(nil)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader([]Sample{
		{ADC: 30000, Air: Atmospheric{Temperature: 21.5, Humidity: 60}},
		{ADC: 31000, Air: Atmospheric{Temperature: 22.0, Humidity: 58}},
	})

	raw, err := f.ReadMoistureRaw()
	require.NoError(t, err)
	assert.Equal(t, uint16(30000), raw)
	air, err := f.ReadAtmospheric()
	require.NoError(t, err)
	assert.Equal(t, 21.5, air.Temperature)

	raw, err = f.ReadMoistureRaw()
	require.NoError(t, err)
	assert.Equal(t, uint16(31000), raw)
	air, err = f.ReadAtmospheric()
	require.NoError(t, err)
	assert.Equal(t, 58.0, air.Humidity)

	// exhausted: last sample repeats
	raw, err = f.ReadMoistureRaw()
	require.NoError(t, err)
	assert.Equal(t, uint16(31000), raw)

	assert.Equal(t, 3, f.MoistureReads)
	assert.Equal(t, 2, f.AtmosphericReads)
}

func TestFakeReaderScriptedFault(t *testing.T) {
	fault := fmt.Errorf("dht22: timeout: %w", ErrSensorFault)
	f := NewFakeReader([]Sample{
		{ADC: 30000, Err: fault},
		{ADC: 31000, Air: Atmospheric{Temperature: 20}},
	})

	_, err := f.ReadAtmospheric()
	assert.ErrorIs(t, err, ErrSensorFault)

	air, err := f.ReadAtmospheric()
	require.NoError(t, err)
	assert.Equal(t, 20.0, air.Temperature)
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, err := f.ReadMoistureRaw()
	assert.Error(t, err)
	_, err = f.ReadAtmospheric()
	assert.Error(t, err)
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Sample{{ADC: 1}})
	f.ReadError = errors.New("simulated error")

	_, err := f.ReadMoistureRaw()
	assert.EqualError(t, err, "simulated error")
}

func TestFakeReaderCloseAndReset(t *testing.T) {
	f := NewFakeReader([]Sample{{ADC: 1}, {ADC: 2}})
	f.ReadAtmospheric()

	require.NoError(t, f.Close())
	assert.True(t, f.Closed)

	f.Reset()
	assert.False(t, f.Closed)
	raw, _ := f.ReadMoistureRaw()
	assert.Equal(t, uint16(1), raw)
}
