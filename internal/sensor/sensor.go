// Package sensor turns device adapter traffic into calibrated readings.
//
// Bus-attached sensors (temperature, clock) return an error wrapping
// bus.ErrNotAcknowledged or bus.ErrTimeout when the device is unavailable.
// Analog sensors always return a value.
package sensor

import (
	"fmt"

	"tinygo.org/x/drivers"

	"github.com/sweeney/greenhouse/internal/analog"
	"github.com/sweeney/greenhouse/internal/logic"
)

// Fixed bus addressing of the reference board.
const (
	TemperatureAddress  = 0x5C // DHT12
	TemperatureRegister = 0x02 // integer part, tenths follow
	ClockAddress        = 0x68 // DS1307
	ClockRegister       = 0x00 // seconds, minutes, hours follow
)

// Temperature reads a DHT12 over the bus.
type Temperature struct {
	Bus      drivers.I2C
	Address  uint16
	Register byte
}

// NewTemperature returns a reader at the reference address.
func NewTemperature(bus drivers.I2C) *Temperature {
	return &Temperature{Bus: bus, Address: TemperatureAddress, Register: TemperatureRegister}
}

// Read returns the current temperature.
func (s *Temperature) Read() (logic.Temperature, error) {
	buf := make([]byte, 2)
	if err := s.Bus.Tx(s.Address, []byte{s.Register}, buf); err != nil {
		return logic.Temperature{}, fmt.Errorf("temperature: %w", err)
	}
	return logic.Temperature{Whole: int(buf[0]), Tenths: int(buf[1])}, nil
}

// Clock reads the time of day from a DS1307.
type Clock struct {
	Bus      drivers.I2C
	Address  uint16
	Register byte
}

// NewClock returns a reader at the reference address.
func NewClock(bus drivers.I2C) *Clock {
	return &Clock{Bus: bus, Address: ClockAddress, Register: ClockRegister}
}

// Read returns the current time of day.
func (s *Clock) Read() (logic.Clock, error) {
	buf := make([]byte, 3)
	if err := s.Bus.Tx(s.Address, []byte{s.Register}, buf); err != nil {
		return logic.Clock{}, fmt.Errorf("clock: %w", err)
	}
	return logic.DecodeClock(buf[0], buf[1], buf[2]), nil
}

// Moisture samples a capacitive soil-moisture probe.
type Moisture struct {
	ADC         analog.Converter
	Channel     int
	Calibration logic.Calibration
}

// Read returns the raw sample and the moisture percentage.
func (s *Moisture) Read() (raw uint16, percent int) {
	raw = s.ADC.Sample(s.Channel)
	return raw, logic.MoisturePercent(raw, s.Calibration)
}

// Light samples the ambient light sensor.
type Light struct {
	ADC         analog.Converter
	Channel     int
	Calibration logic.Calibration
}

// Read returns the raw sample and the clamped light level.
func (s *Light) Read() (raw uint16, percent int) {
	raw = s.ADC.Sample(s.Channel)
	return raw, logic.LightPercent(raw, s.Calibration)
}
