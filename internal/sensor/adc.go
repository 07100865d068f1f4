package sensor

import (
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/sweeney/soil-sensor/internal/logic"
)

// singleEnded maps input A0-A3 to its ads1x15 channel. The low channel
// values select differential pairs.
func singleEnded(input int) ads1x15.Channel {
	return ads1x15.Channel0 + ads1x15.Channel(input)
}

// countFromVoltage expresses v as a count of the 3.3V reference on the
// 16-bit scale the calibration profile uses, clamped to [0, 65535].
func countFromVoltage(v physic.ElectricPotential) uint16 {
	count := float64(v) / float64(physic.Volt) / logic.ReferenceVoltage * logic.FullScaleCount
	switch {
	case count <= 0:
		return 0
	case count >= logic.FullScaleCount:
		return logic.FullScaleCount
	}
	return uint16(count + 0.5)
}
