// Package gpio drives the relay outputs with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/greenhouse/internal/logic"

// Writer sets actuator relay lines.
type Writer interface {
	// Write drives the actuator's line: true = relay energised.
	Write(a logic.Actuator, on bool) error

	// Close drives every line low and releases GPIO resources.
	Close() error
}

// Default line offsets on gpiochip0 (BCM numbering).
const (
	DefaultPinVent      = 22
	DefaultPinSprinkler = 27
	DefaultPinBulb      = 17
)

// Pins maps actuators to line offsets.
type Pins struct {
	Chip      string `yaml:"chip"`
	Vent      int    `yaml:"vent"`
	Sprinkler int    `yaml:"sprinkler"`
	Bulb      int    `yaml:"bulb"`
}

// DefaultPins returns the reference wiring.
func DefaultPins() Pins {
	return Pins{
		Chip:      "gpiochip0",
		Vent:      DefaultPinVent,
		Sprinkler: DefaultPinSprinkler,
		Bulb:      DefaultPinBulb,
	}
}

func (p Pins) offset(a logic.Actuator) (int, bool) {
	switch a {
	case logic.ActuatorVent:
		return p.Vent, true
	case logic.ActuatorSprinkler:
		return p.Sprinkler, true
	case logic.ActuatorBulb:
		return p.Bulb, true
	}
	return 0, false
}
