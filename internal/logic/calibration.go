package logic

import (
	"errors"
	"math"
)

const (
	// FullScaleCount is the largest count the analog channel reports.
	FullScaleCount = 65535
	// ReferenceVoltage is the ADC reference in volts.
	ReferenceVoltage = 3.3

	wetThreshold = 70.0
	dryThreshold = 30.0
)

// Profile holds the two raw reference points of the moisture scale.
// The probe reads higher when drier, so DryReading > SaturatedReading.
type Profile struct {
	DryReading       uint16 `yaml:"dry_reading"`
	SaturatedReading uint16 `yaml:"saturated_reading"`
}

// Validate checks the profile polarity. ToPercentage relies on it to never divide by zero.
func (p Profile) Validate() error {
	if p.DryReading <= p.SaturatedReading {
		return errors.New("calibration: dry_reading must be greater than saturated_reading")
	}
	return nil
}

// ToPercentage maps a raw reading onto [0, 100], rounded to one decimal place.
func ToPercentage(reading uint16, p Profile) float64 {
	if reading >= p.DryReading {
		return 0
	}
	if reading <= p.SaturatedReading {
		return 100
	}
	span := float64(p.DryReading) - float64(p.SaturatedReading)
	return Round1(100 * (float64(p.DryReading) - float64(reading)) / span)
}

// ToState classifies a moisture percentage. 70 and 30 belong to the outer bands.
func ToState(pct float64) State {
	switch {
	case pct >= wetThreshold:
		return StateWet
	case pct <= dryThreshold:
		return StateDry
	default:
		return StateIntermediate
	}
}

// Map converts a raw reading into a calibrated MoistureReading.
func Map(reading uint16, p Profile) MoistureReading {
	pct := ToPercentage(reading, p)
	return MoistureReading{Percentage: pct, State: ToState(pct)}
}

// Voltage converts a (possibly averaged) raw count into volts at the ADC pin.
func Voltage(raw float64) float64 {
	return raw / FullScaleCount * ReferenceVoltage
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
