//go:build linux

package power

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// RTCPowerOff arms the RTC wake alarm and powers the board off.
// Requires CAP_SYS_BOOT and write access to the wake alarm.
type RTCPowerOff struct {
	WakeAlarm string
}

// Enter arms the alarm d from now and powers off. It only returns on failure.
func (p RTCPowerOff) Enter(d time.Duration) error {
	alarm := p.WakeAlarm
	if alarm == "" {
		alarm = DefaultWakeAlarm
	}
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}

	// the kernel refuses a new alarm while one is pending
	if err := os.WriteFile(alarm, []byte("0"), 0); err != nil {
		return fmt.Errorf("clear wake alarm: %w", err)
	}
	if err := os.WriteFile(alarm, []byte("+"+strconv.FormatInt(secs, 10)), 0); err != nil {
		return fmt.Errorf("arm wake alarm: %w", err)
	}

	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		return fmt.Errorf("power off: %w", err)
	}
	return nil
}

// Uptime returns time since boot, including time spent suspended.
func Uptime() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_BOOTTIME, &ts); err != nil {
		return time.Since(processStart)
	}
	return time.Duration(ts.Nano())
}

var processStart = time.Now()
