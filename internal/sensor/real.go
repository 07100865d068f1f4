//go:build linux

package sensor

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

const consumer = "soil-sensor"

// adcRange is the ADS1115 full-scale range; it covers the 3.3V probe output.
const adcRange = 4096 * physic.MilliVolt

// RealReader reads the DHT22 through the GPIO character device and the soil
// probe through an ADS1115 on I2C.
type RealReader struct {
	chip    *gpiocdev.Chip
	dhtLine int
	bus     i2c.BusCloser
	adc     ads1x15.PinADC

	lastDHT time.Time
}

// NewRealReader opens the GPIO chip, the I2C bus and the ADC channel.
func NewRealReader(cfg Config) (*RealReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	chip, err := gpiocdev.NewChip(cfg.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2CBus, err)
	}

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: cfg.ADCAddress})
	if err != nil {
		bus.Close()
		chip.Close()
		return nil, fmt.Errorf("open ads1115 at %#x: %w", cfg.ADCAddress, err)
	}

	pin, err := dev.PinForChannel(singleEnded(cfg.ADCChannel), adcRange, 8*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		bus.Close()
		chip.Close()
		return nil, fmt.Errorf("configure adc channel %d: %w", cfg.ADCChannel, err)
	}

	return &RealReader{
		chip:    chip,
		dhtLine: cfg.DHTLine,
		bus:     bus,
		adc:     pin,
	}, nil
}

// ReadMoistureRaw converts the ADS1115 voltage into a 16-bit count of the
// 3.3V reference, the scale the calibration profile is expressed in.
func (r *RealReader) ReadMoistureRaw() (uint16, error) {
	s, err := r.adc.Read()
	if err != nil {
		return 0, fmt.Errorf("read adc: %v: %w", err, ErrSensorFault)
	}
	return countFromVoltage(s.V), nil
}

// ReadAtmospheric runs one DHT22 transaction: hold the line low for the start
// signal, release it as an input and capture both edges until the frame timeout.
func (r *RealReader) ReadAtmospheric() (Atmospheric, error) {
	if wait := dhtMinInterval - time.Since(r.lastDHT); wait > 0 {
		time.Sleep(wait)
	}
	defer func() { r.lastDHT = time.Now() }()

	events := make(chan gpiocdev.LineEvent, 2*dhtFrameBits+16)
	handler := func(evt gpiocdev.LineEvent) {
		select {
		case events <- evt:
		default:
		}
	}

	line, err := r.chip.RequestLine(r.dhtLine, gpiocdev.AsOutput(0), gpiocdev.WithEventHandler(handler))
	if err != nil {
		return Atmospheric{}, fmt.Errorf("request dht line %d: %v: %w", r.dhtLine, err, ErrSensorFault)
	}
	time.Sleep(dhtStartPulse)
	if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges); err != nil {
		line.Close()
		return Atmospheric{}, fmt.Errorf("release dht line %d: %v: %w", r.dhtLine, err, ErrSensorFault)
	}
	time.Sleep(dhtFrameTimeout)
	line.Close()

	edges := make([]Edge, 0, len(events))
	for {
		select {
		case evt := <-events:
			edges = append(edges, Edge{
				Rising: evt.Type == gpiocdev.LineEventRisingEdge,
				At:     evt.Timestamp,
			})
		default:
			return DecodeDHT22(edges)
		}
	}
}

// Close releases GPIO and I2C resources.
func (r *RealReader) Close() error {
	var errs []error

	if r.adc != nil {
		if err := r.adc.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt adc: %w", err))
		}
	}
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close i2c bus: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
