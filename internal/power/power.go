// Package power provides the power-saving sleep transition and the
// boot-relative clock used to timestamp cycles.
//
// Entering power-saving sleep powers the board off with an RTC wake alarm
// armed. Nothing in memory survives: the next cycle starts from main.
package power

import "time"

// DefaultWakeAlarm is the sysfs RTC wake alarm of the first RTC.
const DefaultWakeAlarm = "/sys/class/rtc/rtc0/wakealarm"

// Transition puts the board into its low-power state for d.
// A successful hardware transition does not return.
type Transition interface {
	Enter(d time.Duration) error
}

// FakeTransition records transitions for test assertions.
type FakeTransition struct {
	// Calls contains the durations passed to Enter.
	Calls []time.Duration

	// Err, if set, will be returned by Enter.
	Err error
}

// Enter records the call.
func (f *FakeTransition) Enter(d time.Duration) error {
	f.Calls = append(f.Calls, d)
	return f.Err
}

// UptimeSeconds returns whole seconds since boot, the cycle timestamp.
func UptimeSeconds() uint64 {
	return uint64(Uptime() / time.Second)
}
