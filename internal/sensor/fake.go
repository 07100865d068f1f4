package sensor

import "errors"

// FakeReader is a test double that returns scripted sensor values.
type FakeReader struct {
	// Samples contains the scripted readings. ReadMoistureRaw returns the
	// current sample's ADC; ReadAtmospheric returns its air values (or Err)
	// and advances to the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// MoistureReads and AtmosphericReads count calls.
	MoistureReads    int
	AtmosphericReads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by every read.
	ReadError error
}

// Sample is one scripted tick.
type Sample struct {
	ADC uint16
	Air Atmospheric
	Err error // returned by ReadAtmospheric instead of Air
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// ReadMoistureRaw returns the current sample's ADC count.
func (f *FakeReader) ReadMoistureRaw() (uint16, error) {
	f.MoistureReads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	return f.Samples[f.index].ADC, nil
}

// ReadAtmospheric returns the current sample's air values and advances.
// If samples are exhausted, the last sample repeats.
func (f *FakeReader) ReadAtmospheric() (Atmospheric, error) {
	f.AtmosphericReads++
	if f.ReadError != nil {
		return Atmospheric{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Atmospheric{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	if sample.Err != nil {
		return Atmospheric{}, sample.Err
	}
	return sample.Air, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the reader to the first sample.
func (f *FakeReader) Reset() {
	f.index = 0
	f.MoistureReads = 0
	f.AtmosphericReads = 0
	f.Closed = false
}
