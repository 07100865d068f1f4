// Package sensor provides the soil probe and air sensor readers with hardware abstraction.
// The real implementation reads a DHT22 over the Linux GPIO character device and the soil
// probe through an ADS1115 on I2C.
// The fake implementation allows testing without hardware.
package sensor

import "errors"

// ErrSensorFault marks a recoverable read failure, e.g. a DHT22 that did not
// answer within its protocol timeout. Callers skip the sample and carry on.
var ErrSensorFault = errors.New("sensor fault")

// Atmospheric is one temperature/humidity pair from the air sensor.
type Atmospheric struct {
	Temperature float64 // °C
	Humidity    float64 // % RH
}

// Reader reads the two physical sensors.
type Reader interface {
	// ReadMoistureRaw returns one 16-bit analog count from the soil probe.
	ReadMoistureRaw() (uint16, error)

	// ReadAtmospheric returns one temperature/humidity pair.
	// Errors wrapping ErrSensorFault are transient.
	ReadAtmospheric() (Atmospheric, error)

	// Close releases hardware resources.
	Close() error
}

// Hardware defaults (BCM numbering, ADS1115 default address).
const (
	DefaultChip       = "gpiochip0"
	DefaultDHTLine    = 4
	DefaultADCAddress = 0x48
	DefaultADCChannel = 0
)

// Config locates the sensors on the board.
type Config struct {
	Chip       string // GPIO chip holding the DHT22 data line
	DHTLine    int    // DHT22 data line offset
	I2CBus     string // I2C bus name, empty for the first available
	ADCAddress uint16 // ADS1115 I2C address
	ADCChannel int    // ADS1115 single-ended channel, 0-3
}
