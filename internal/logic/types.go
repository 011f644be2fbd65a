// Package logic contains the pure greenhouse control rules.
// This package has NO device dependencies (no bus, GPIO, display or time.Sleep):
// it maps raw samples to readings and readings to actuator commands.
package logic

import "fmt"

// State is one step of the control cycle.
type State uint8

const (
	StateIdle State = iota + 1
	StateGetTemperature
	StateToggleVent
	StateGetMoisture
	StateToggleSprinkler
	StateGetTime
	StateGetLight
	StateToggleBulb
)

var stateNames = map[State]string{
	StateIdle:            "IDLE",
	StateGetTemperature:  "GET_TEMPERATURE",
	StateToggleVent:      "TOGGLE_VENT",
	StateGetMoisture:     "GET_MOISTURE",
	StateToggleSprinkler: "TOGGLE_SPRINKLER",
	StateGetTime:         "GET_TIME",
	StateGetLight:        "GET_LIGHT",
	StateToggleBulb:      "TOGGLE_BULB",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", uint8(s))
}

// Cycle timing, in ticks.
const (
	// CycleLength is the number of idle ticks between full sensor cycles
	// (455 x 33ms, about 15s).
	CycleLength = 455
	// ClockEvery is the idle-tick divider for clock-only refreshes (about 200ms).
	ClockEvery = 6
)

// Temperature is a sensor reading split the way the sensor reports it.
type Temperature struct {
	Whole  int // degrees Celsius
	Tenths int // fractional digit
}

func (t Temperature) String() string {
	return fmt.Sprintf("%d.%d", t.Whole, t.Tenths)
}

// Clock is a wall-clock time of day as kept by the real-time clock.
type Clock struct {
	Hours   int
	Minutes int
	Seconds int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}

// Readings holds the last known value of every sensor.
// A field is only overwritten by a successful read of its sensor.
type Readings struct {
	Temperature     Temperature
	MoisturePercent int
	LightPercent    int
	Clock           Clock
}

// Outputs is the commanded state of the three actuators.
type Outputs struct {
	Vent      bool
	Sprinkler bool
	Bulb      bool
}

// Actuator names one of the three relay outputs.
type Actuator string

const (
	ActuatorVent      Actuator = "vent"
	ActuatorSprinkler Actuator = "sprinkler"
	ActuatorBulb      Actuator = "bulb"
)

// Actuators lists every actuator in wiring order.
var Actuators = []Actuator{ActuatorVent, ActuatorSprinkler, ActuatorBulb}

// OnOff renders a boolean output as ON/OFF.
func OnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
