// Package cycle implements the tick-driven control cycle.
//
// A Controller owns every piece of mutable control state: the current step,
// the tick counter, the last known readings and the commanded outputs.
// Each call to Tick performs exactly one step's work and picks the next
// step. Ticks are run to completion under a mutex, so a caller driving Tick
// from a timer can never overlap two ticks.
package cycle

import (
	"log"
	"sync"

	"github.com/sweeney/greenhouse/internal/display"
	"github.com/sweeney/greenhouse/internal/gpio"
	"github.com/sweeney/greenhouse/internal/logic"
)

// TemperatureReader reads a bus-attached temperature sensor.
type TemperatureReader interface {
	Read() (logic.Temperature, error)
}

// ClockReader reads a bus-attached real-time clock.
type ClockReader interface {
	Read() (logic.Clock, error)
}

// AnalogReader samples an analog sensor and normalises the sample.
type AnalogReader interface {
	Read() (raw uint16, percent int)
}

// Devices are the collaborators a Controller drives.
type Devices struct {
	Temperature TemperatureReader
	Clock       ClockReader
	Moisture    AnalogReader
	Light       AnalogReader
	Outputs     gpio.Writer
	Screen      *display.Screen
}

// Report describes one completed tick.
type Report struct {
	From     logic.State
	To       logic.State
	Counter  uint16
	Readings logic.Readings
	Outputs  logic.Outputs

	// Err is a device failure absorbed during the tick (reading retained).
	Err error

	// FullCycle is set on the tick that completes a full sensor cycle.
	FullCycle bool
}

// Controller is the control cycle state machine.
type Controller struct {
	mu sync.Mutex

	dev        Devices
	thresholds logic.Thresholds
	log        *log.Logger

	state    logic.State
	counter  uint16
	readings logic.Readings
	outputs  logic.Outputs
}

// New creates a Controller in Idle with the counter at CycleLength, so the
// first tick starts a full cycle. A nil logger uses the standard logger.
func New(dev Devices, th logic.Thresholds, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		dev:        dev,
		thresholds: th,
		log:        logger,
		state:      logic.StateIdle,
		counter:    logic.CycleLength,
	}
}

// Init drives every output low and draws the static screen layout.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dev.Screen.DrawLayout()
	var first error
	for _, a := range logic.Actuators {
		if err := c.dev.Outputs.Write(a, false); err != nil && first == nil {
			first = err
		}
	}
	c.outputs = logic.Outputs{}
	return first
}

// Tick performs one step of the cycle.
func (c *Controller) Tick() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.state
	var err error

	switch c.state {
	case logic.StateIdle:
		c.idle()

	case logic.StateGetTemperature:
		err = c.readTemperature()
		c.state = logic.StateGetMoisture

	case logic.StateToggleVent:
		on := logic.VentOn(c.readings.Temperature, c.thresholds)
		c.outputs.Vent = on
		err = c.drive(logic.ActuatorVent, on, "ventilation ON")
		c.state = logic.StateToggleSprinkler

	case logic.StateGetMoisture:
		c.readMoisture()
		c.state = logic.StateGetTime

	case logic.StateToggleSprinkler:
		on := logic.SprinklerOn(c.readings.MoisturePercent, c.thresholds)
		c.outputs.Sprinkler = on
		err = c.drive(logic.ActuatorSprinkler, on, "water ON")
		c.state = logic.StateIdle

	case logic.StateGetTime:
		err = c.readClock()
		if c.counter == 0 {
			c.state = logic.StateGetLight
		} else {
			c.state = logic.StateIdle
		}

	case logic.StateGetLight:
		c.readLight()
		c.state = logic.StateToggleBulb

	case logic.StateToggleBulb:
		on := logic.BulbOn(c.readings.LightPercent, c.thresholds)
		c.outputs.Bulb = on
		err = c.drive(logic.ActuatorBulb, on, "light ON")
		c.state = logic.StateToggleVent

	default:
		c.log.Printf("cycle: unknown state %v, resetting", c.state)
		c.state = logic.StateIdle
	}

	return Report{
		From:      from,
		To:        c.state,
		Counter:   c.counter,
		Readings:  c.readings,
		Outputs:   c.outputs,
		Err:       err,
		FullCycle: from == logic.StateToggleSprinkler,
	}
}

func (c *Controller) idle() {
	switch {
	case c.counter >= logic.CycleLength:
		c.counter = 0
		c.state = logic.StateGetTemperature
	case c.counter%logic.ClockEvery == 0:
		c.counter++
		c.state = logic.StateGetTime
	default:
		c.counter++
	}
}

func (c *Controller) readTemperature() error {
	t, err := c.dev.Temperature.Read()
	if err != nil {
		c.log.Printf("device not found: %v", err)
		return err
	}
	c.readings.Temperature = t
	c.dev.Screen.ShowTemperature(t)
	return nil
}

func (c *Controller) readClock() error {
	clk, err := c.dev.Clock.Read()
	if err != nil {
		c.log.Printf("device not found: %v", err)
		return err
	}
	c.readings.Clock = clk
	c.dev.Screen.ShowClock(clk)
	return nil
}

func (c *Controller) readMoisture() {
	_, pct := c.dev.Moisture.Read()
	c.readings.MoisturePercent = pct
	c.log.Printf("moisture value: %d", pct)
	c.dev.Screen.ShowMoisture(pct)
}

func (c *Controller) readLight() {
	_, pct := c.dev.Light.Read()
	c.readings.LightPercent = pct
	c.log.Printf("light value: %d", pct)
	c.dev.Screen.ShowLight(pct)
}

// drive rewrites an output every visit, changed or not.
func (c *Controller) drive(a logic.Actuator, on bool, onMsg string) error {
	if err := c.dev.Outputs.Write(a, on); err != nil {
		c.log.Printf("output %s: %v", a, err)
		return err
	}
	if on {
		c.log.Print(onMsg)
	}
	return nil
}

// State returns the step the next tick will perform.
func (c *Controller) State() logic.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Counter returns the tick counter.
func (c *Controller) Counter() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// Readings returns the last known readings.
func (c *Controller) Readings() logic.Readings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readings
}

// Outputs returns the commanded outputs.
func (c *Controller) Outputs() logic.Outputs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputs
}
