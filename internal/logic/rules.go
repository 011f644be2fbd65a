package logic

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// ErrInvalidCalibration is returned when calibration bounds cannot produce a percentage.
var ErrInvalidCalibration = errors.New("invalid calibration")

// Calibration holds the raw converter bounds used to normalise analog samples.
type Calibration struct {
	AirRaw   uint16 `yaml:"air_raw"`   // reading with the probe in dry air
	WaterRaw uint16 `yaml:"water_raw"` // reading with the probe in water
	DayRaw   uint16 `yaml:"day_raw"`   // light reading treated as full daylight
}

// DefaultCalibration matches the reference probe set.
func DefaultCalibration() Calibration {
	return Calibration{AirRaw: 920, WaterRaw: 760, DayRaw: 100}
}

// Validate checks that the moisture denominator is positive.
func (c Calibration) Validate() error {
	if c.AirRaw <= c.WaterRaw {
		return fmt.Errorf("%w: air_raw %d must be greater than water_raw %d", ErrInvalidCalibration, c.AirRaw, c.WaterRaw)
	}
	return nil
}

// Thresholds are the fixed switching points of the actuator rules.
type Thresholds struct {
	VentAboveC            int `yaml:"vent_above_c" json:"vent_above_c"`
	SprinklerBelowPercent int `yaml:"sprinkler_below_percent" json:"sprinkler_below_percent"`
	BulbBelowPercent      int `yaml:"bulb_below_percent" json:"bulb_below_percent"`
}

// DefaultThresholds returns the reference switching points.
func DefaultThresholds() Thresholds {
	return Thresholds{VentAboveC: 28, SprinklerBelowPercent: 80, BulbBelowPercent: 60}
}

// MoisturePercent converts a raw soil-moisture sample to 0-100 %.
// The sample is clamped to [WaterRaw, AirRaw]; wetter soil reads lower.
// The arithmetic is single precision, as on the controller board.
func MoisturePercent(raw uint16, c Calibration) int {
	if raw > c.AirRaw {
		raw = c.AirRaw
	} else if raw < c.WaterRaw {
		raw = c.WaterRaw
	}
	span := float32(c.AirRaw - c.WaterRaw)
	// non-negative, so floor(x+0.5) rounds half away from zero
	return int(math32.Floor(100*(1-float32(raw-c.WaterRaw)/span) + 0.5))
}

// LightPercent clamps a raw light sample to DayRaw. No scaling is applied.
func LightPercent(raw uint16, c Calibration) int {
	if raw > c.DayRaw {
		raw = c.DayRaw
	}
	return int(raw)
}

// VentOn reports whether ventilation is needed. Strictly greater than the threshold.
func VentOn(t Temperature, th Thresholds) bool {
	return t.Whole > th.VentAboveC
}

// SprinklerOn reports whether the soil needs watering. Strictly less than the threshold.
func SprinklerOn(moisturePercent int, th Thresholds) bool {
	return moisturePercent < th.SprinklerBelowPercent
}

// BulbOn reports whether supplemental light is needed.
func BulbOn(lightPercent int, th Thresholds) bool {
	return lightPercent < th.BulbBelowPercent
}

// DecodeClock unpacks the seconds, minutes and hours registers of the
// real-time clock. Each byte carries two packed decimal digits: the low
// nibble is the units digit, the bits above it the tens digit.
func DecodeClock(sec, min, hour byte) Clock {
	return Clock{
		Hours:   int((hour>>4)&0x03)*10 + int(hour&0x0F),
		Minutes: int((min>>4)&0x07)*10 + int(min&0x0F),
		Seconds: int((sec>>4)&0x07)*10 + int(sec&0x0F),
	}
}

// EncodeClock packs a time of day into the register layout DecodeClock reads.
func EncodeClock(c Clock) (sec, min, hour byte) {
	pack := func(v int) byte { return byte(v/10)<<4 | byte(v%10) }
	return pack(c.Seconds), pack(c.Minutes), pack(c.Hours)
}
