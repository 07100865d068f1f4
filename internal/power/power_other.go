//go:build !linux

package power

import (
	"errors"
	"time"
)

// RTCPowerOff is not available on non-Linux platforms.
type RTCPowerOff struct {
	WakeAlarm string
}

// Enter returns an error on non-Linux platforms.
func (p RTCPowerOff) Enter(d time.Duration) error {
	return errors.New("power: power-saving sleep not supported on this platform (requires Linux)")
}

// Uptime returns time since the process started; boot time is not available.
func Uptime() time.Duration {
	return time.Since(processStart)
}

var processStart = time.Now()
