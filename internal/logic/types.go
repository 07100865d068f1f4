// Package logic contains the pure calibration and record logic for the soil sensor.
// This package has NO external dependencies (no GPIO, I2C, files, or time.Sleep).
package logic

import (
	"fmt"
	"time"
)

// State is the categorical soil state. Values are the labels written to the log.
type State string

const (
	StateDry          State = "Seco"
	StateIntermediate State = "Intermediário"
	StateWet          State = "Úmido"
)

// ParseState converts a log label back into a State.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateDry, StateIntermediate, StateWet:
		return State(s), nil
	}
	return "", fmt.Errorf("unknown soil state %q", s)
}

// RawSample is a single successful read of both sensors.
type RawSample struct {
	ADC         uint16  // 16-bit analog count, higher = drier
	Temperature float64 // °C
	Humidity    float64 // % relative humidity
}

// MoistureReading is a calibrated soil moisture value.
type MoistureReading struct {
	Percentage float64
	State      State
}

// CycleRecord is one row of the persisted log, produced once per duty cycle.
type CycleRecord struct {
	Cycle       uint64
	Timestamp   uint64 // seconds since boot
	Duration    time.Duration
	Samples     int
	ADC         float64
	Voltage     float64
	Moisture    float64
	State       State
	Temperature float64
	Humidity    float64
}
