//go:build !linux

package sensor

import "errors"

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(cfg Config) (*RealReader, error) {
	return nil, errors.New("sensor: not supported on this platform (requires Linux)")
}

// ReadMoistureRaw is not implemented on non-Linux platforms.
func (r *RealReader) ReadMoistureRaw() (uint16, error) {
	return 0, errors.New("sensor: not supported")
}

// ReadAtmospheric is not implemented on non-Linux platforms.
func (r *RealReader) ReadAtmospheric() (Atmospheric, error) {
	return Atmospheric{}, errors.New("sensor: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
