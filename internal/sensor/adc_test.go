package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

func TestSingleEnded(t *testing.T) {
	want := []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}
	for input, ch := range want {
		got := singleEnded(input)
		assert.Equal(t, ch, got, "A%d", input)
		assert.NotContains(t, got.String(), "-", "A%d must not be a differential pair", input)
	}
}

func TestCountFromVoltage(t *testing.T) {
	tests := []struct {
		name string
		v    physic.ElectricPotential
		want uint16
	}{
		{"negative clamps to zero", -50 * physic.MilliVolt, 0},
		{"zero", 0, 0},
		{"mid scale", 1651 * physic.MilliVolt, 32787},
		{"reference", 3300 * physic.MilliVolt, 65535},
		{"above reference clamps", 4000 * physic.MilliVolt, 65535},
		{"dry calibration point", 2494 * physic.MilliVolt, 49529},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countFromVoltage(tt.v))
		})
	}
}
