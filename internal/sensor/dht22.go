package sensor

import (
	"fmt"
	"time"
)

// DHT22 protocol constants.
const (
	dhtFrameBits = 40
	// A data bit is a ~50µs low followed by a high of ~27µs (0) or ~70µs (1).
	dhtOneThreshold = 50 * time.Microsecond
	// Start signal the host holds low before releasing the line.
	dhtStartPulse = 1100 * time.Microsecond
	// A complete frame is ~5ms; anything later is a missing sensor.
	dhtFrameTimeout = 10 * time.Millisecond
	// The sensor needs 2s between conversions.
	dhtMinInterval = 2 * time.Second
)

// Edge is one transition observed on the DHT22 data line.
type Edge struct {
	Rising bool
	At     time.Duration // kernel timestamp, only differences matter
}

// DecodeDHT22 decodes a DHT22 frame from the edges seen after the start signal.
// The last 40 high pulses are the data bits; anything before them (the sensor's
// response preamble or a partially captured start) is ignored.
func DecodeDHT22(edges []Edge) (Atmospheric, error) {
	var highs []time.Duration
	var rise time.Duration
	haveRise := false
	for _, e := range edges {
		if e.Rising {
			rise = e.At
			haveRise = true
			continue
		}
		if haveRise {
			highs = append(highs, e.At-rise)
			haveRise = false
		}
	}
	if len(highs) < dhtFrameBits {
		return Atmospheric{}, fmt.Errorf("dht22: short frame, %d of %d bits: %w", len(highs), dhtFrameBits, ErrSensorFault)
	}
	highs = highs[len(highs)-dhtFrameBits:]

	var b [5]byte
	for i, w := range highs {
		b[i/8] <<= 1
		if w > dhtOneThreshold {
			b[i/8] |= 1
		}
	}
	if sum := b[0] + b[1] + b[2] + b[3]; sum != b[4] {
		return Atmospheric{}, fmt.Errorf("dht22: checksum %#02x, want %#02x: %w", sum, b[4], ErrSensorFault)
	}

	humidity := float64(uint16(b[0])<<8|uint16(b[1])) / 10
	temperature := float64(uint16(b[2]&0x7f)<<8|uint16(b[3])) / 10
	if b[2]&0x80 != 0 {
		temperature = -temperature
	}
	if humidity > 100 || temperature < -40 || temperature > 80 {
		return Atmospheric{}, fmt.Errorf("dht22: out of range (%.1f°C, %.1f%%): %w", temperature, humidity, ErrSensorFault)
	}
	return Atmospheric{Temperature: temperature, Humidity: humidity}, nil
}
