package cycle

import (
	"bytes"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/greenhouse/internal/analog"
	"github.com/sweeney/greenhouse/internal/bus"
	"github.com/sweeney/greenhouse/internal/display"
	"github.com/sweeney/greenhouse/internal/gpio"
	"github.com/sweeney/greenhouse/internal/logic"
	"github.com/sweeney/greenhouse/internal/sensor"
)

const (
	moistureChannel = 0
	lightChannel    = 1
)

type rig struct {
	conn    *bus.FakeConn
	temp    *bus.FakeDevice
	clock   *bus.FakeDevice
	adc     *analog.FakeConverter
	outputs *gpio.FakeWriter
	lcd     *display.FakeDisplay
	logs    *bytes.Buffer
	ctrl    *Controller
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		conn:    bus.NewFakeConn(),
		adc:     analog.NewFakeConverter(),
		outputs: gpio.NewFakeWriter(),
		lcd:     display.NewFakeDisplay(),
		logs:    &bytes.Buffer{},
	}
	r.temp = r.conn.Attach(sensor.TemperatureAddress)
	r.clock = r.conn.Attach(sensor.ClockAddress)
	r.setTemperature(24, 5)
	copy(r.clock.Regs[:], []byte{0x00, 0x45, 0x02})
	r.adc.Set(moistureChannel, 800)
	r.adc.Set(lightChannel, 80)

	b := bus.Framed{Conn: r.conn}
	cal := logic.DefaultCalibration()
	r.ctrl = New(Devices{
		Temperature: sensor.NewTemperature(b),
		Clock:       sensor.NewClock(b),
		Moisture:    &sensor.Moisture{ADC: r.adc, Channel: moistureChannel, Calibration: cal},
		Light:       &sensor.Light{ADC: r.adc, Channel: lightChannel, Calibration: cal},
		Outputs:     r.outputs,
		Screen:      display.NewScreen(r.lcd),
	}, logic.DefaultThresholds(), log.New(r.logs, "", 0))
	return r
}

func (r *rig) setTemperature(whole, tenths byte) {
	r.temp.Regs[0x02] = whole
	r.temp.Regs[0x03] = tenths
}

// tickUntil ticks until a report matches, failing after max ticks.
func (r *rig) tickUntil(t *testing.T, max int, match func(Report) bool) Report {
	t.Helper()
	for i := 0; i < max; i++ {
		rep := r.ctrl.Tick()
		if match(rep) {
			return rep
		}
	}
	t.Fatalf("no matching tick within %d ticks", max)
	return Report{}
}

func from(s logic.State) func(Report) bool {
	return func(rep Report) bool { return rep.From == s }
}

func TestNewControllerStartsFullCycle(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, logic.StateIdle, r.ctrl.State())
	assert.Equal(t, uint16(logic.CycleLength), r.ctrl.Counter())
	assert.Equal(t, logic.Readings{}, r.ctrl.Readings())
}

func TestEndToEndScenario(t *testing.T) {
	r := newRig(t)

	rep := r.ctrl.Tick()
	assert.Equal(t, logic.StateGetTemperature, rep.To)
	assert.Equal(t, uint16(0), rep.Counter)

	rep = r.ctrl.Tick()
	require.NoError(t, rep.Err)
	assert.Equal(t, logic.Temperature{Whole: 24, Tenths: 5}, rep.Readings.Temperature)
	assert.Equal(t, logic.StateGetMoisture, rep.To)

	rep = r.ctrl.Tick()
	assert.Equal(t, 75, rep.Readings.MoisturePercent)
	assert.Equal(t, logic.StateGetTime, rep.To)
}

func TestFullCycleOrder(t *testing.T) {
	r := newRig(t)

	want := []logic.State{
		logic.StateIdle,
		logic.StateGetTemperature,
		logic.StateGetMoisture,
		logic.StateGetTime,
		logic.StateGetLight,
		logic.StateToggleBulb,
		logic.StateToggleVent,
		logic.StateToggleSprinkler,
		logic.StateIdle,
		logic.StateGetTime,
		logic.StateIdle,
	}
	var got []logic.State
	var full []bool
	for range want {
		rep := r.ctrl.Tick()
		got = append(got, rep.From)
		full = append(full, rep.FullCycle)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []bool{false, false, false, false, false, false, false, true, false, false, false}, full)
	assert.Equal(t, logic.StateIdle, r.ctrl.State())
}

func TestCounterPeriod(t *testing.T) {
	r := newRig(t)
	r.tickUntil(t, 20, from(logic.StateToggleSprinkler))
	require.Equal(t, uint16(0), r.ctrl.Counter())

	idleTicks, clockReads := 0, 0
	for i := 0; i < 2000; i++ {
		rep := r.ctrl.Tick()
		if rep.From == logic.StateIdle && rep.To == logic.StateGetTemperature {
			break
		}
		switch rep.From {
		case logic.StateIdle:
			idleTicks++
		case logic.StateGetTime:
			clockReads++
			assert.Equal(t, logic.StateIdle, rep.To, "clock refresh mid-cycle returns to idle")
		default:
			t.Fatalf("unexpected state %v between full cycles", rep.From)
		}
	}
	assert.Equal(t, logic.CycleLength, idleTicks)
	// counter values 0, 6, ..., 450
	assert.Equal(t, 76, clockReads)
}

func TestClockRefreshEverySixthIdleTick(t *testing.T) {
	r := newRig(t)
	r.tickUntil(t, 20, from(logic.StateToggleSprinkler))

	var counters []uint16
	for i := 0; i < 28; i++ {
		rep := r.ctrl.Tick()
		if rep.To == logic.StateGetTime {
			counters = append(counters, rep.Counter)
		}
	}
	// the counter is incremented on the tick that leaves idle
	assert.Equal(t, []uint16{1, 7, 13, 19}, counters)
}

func TestClockShownOnDisplay(t *testing.T) {
	r := newRig(t)
	copy(r.clock.Regs[:], []byte{0x30, 0x15, 0x08})

	rep := r.tickUntil(t, 10, from(logic.StateGetTime))
	require.NoError(t, rep.Err)
	assert.Equal(t, logic.Clock{Hours: 8, Minutes: 15, Seconds: 30}, rep.Readings.Clock)
	assert.Equal(t, "08:15:30", r.lcd.Line(0)[:8])
}

func TestTemperatureFailureRetainsReading(t *testing.T) {
	r := newRig(t)
	r.tickUntil(t, 20, from(logic.StateToggleSprinkler))
	require.Equal(t, 24, r.ctrl.Readings().Temperature.Whole)

	r.temp.Absent = true
	r.setTemperature(35, 0)
	r.logs.Reset()

	rep := r.tickUntil(t, 1000, from(logic.StateGetTemperature))
	require.ErrorIs(t, rep.Err, bus.ErrNotAcknowledged)
	assert.Equal(t, logic.StateGetMoisture, rep.To)
	assert.Equal(t, logic.Temperature{Whole: 24, Tenths: 5}, rep.Readings.Temperature)
	assert.Contains(t, r.logs.String(), "device not found: temperature:")
	assert.Equal(t, 1, bytes.Count(r.logs.Bytes(), []byte("device not found")))
}

func TestClockFailureStillAdvances(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.ctrl.Init())
	r.clock.Absent = true

	rep := r.tickUntil(t, 10, from(logic.StateGetTime))
	require.ErrorIs(t, rep.Err, bus.ErrNotAcknowledged)
	assert.Equal(t, logic.StateGetLight, rep.To, "full cycle continues past a dead clock")
	assert.Equal(t, logic.Clock{}, rep.Readings.Clock)
	assert.Equal(t, "00:00:00", r.lcd.Line(0)[:8])
}

func TestAllDevicesAbsentNeverStalls(t *testing.T) {
	r := newRig(t)
	r.temp.Absent = true
	r.clock.Absent = true

	fullCycles := 0
	for i := 0; i < 3*(logic.CycleLength+100); i++ {
		if r.ctrl.Tick().FullCycle {
			fullCycles++
		}
	}
	assert.GreaterOrEqual(t, fullCycles, 3)
}

func TestActuatorsFollowReadings(t *testing.T) {
	r := newRig(t)
	r.setTemperature(29, 0)
	r.adc.Set(moistureChannel, 920) // 0 %
	r.adc.Set(lightChannel, 30)

	rep := r.tickUntil(t, 20, from(logic.StateToggleSprinkler))
	assert.Equal(t, logic.Outputs{Vent: true, Sprinkler: true, Bulb: true}, rep.Outputs)
	assert.True(t, r.outputs.Level(logic.ActuatorVent))
	assert.True(t, r.outputs.Level(logic.ActuatorSprinkler))
	assert.True(t, r.outputs.Level(logic.ActuatorBulb))
	assert.Contains(t, r.logs.String(), "ventilation ON")
	assert.Contains(t, r.logs.String(), "water ON")
	assert.Contains(t, r.logs.String(), "light ON")
}

func TestActuatorThresholdBoundaries(t *testing.T) {
	r := newRig(t)
	r.setTemperature(28, 9)
	r.adc.Set(moistureChannel, 792) // 80 %
	r.adc.Set(lightChannel, 60)

	rep := r.tickUntil(t, 20, from(logic.StateToggleSprinkler))
	assert.Equal(t, 80, rep.Readings.MoisturePercent)
	assert.Equal(t, logic.Outputs{}, rep.Outputs)
}

func TestOutputsRewrittenEveryVisit(t *testing.T) {
	r := newRig(t)
	r.tickUntil(t, 20, from(logic.StateToggleSprinkler))
	r.tickUntil(t, 1000, from(logic.StateToggleSprinkler))

	count := map[logic.Actuator]int{}
	for _, w := range r.outputs.Writes {
		count[w.Actuator]++
	}
	assert.Equal(t, map[logic.Actuator]int{
		logic.ActuatorVent:      2,
		logic.ActuatorSprinkler: 2,
		logic.ActuatorBulb:      2,
	}, count)
}

func TestOutputWriteFailureIsAbsorbed(t *testing.T) {
	r := newRig(t)
	r.outputs.WriteError = assert.AnError

	rep := r.tickUntil(t, 20, from(logic.StateToggleBulb))
	assert.ErrorIs(t, rep.Err, assert.AnError)
	assert.Equal(t, logic.StateToggleVent, rep.To)
	assert.Contains(t, r.logs.String(), "output bulb:")
}

func TestUnknownStateResets(t *testing.T) {
	r := newRig(t)
	r.ctrl.state = logic.State(99)

	rep := r.ctrl.Tick()
	assert.Equal(t, logic.State(99), rep.From)
	assert.Equal(t, logic.StateIdle, rep.To)
	assert.Contains(t, r.logs.String(), "unknown state")
}

func TestInitDrivesOutputsLowAndDrawsLayout(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.ctrl.Init())
	assert.Len(t, r.outputs.Writes, 3)
	for _, w := range r.outputs.Writes {
		assert.False(t, w.On)
	}
	assert.Equal(t, "00:00:00", r.lcd.Line(0)[:8])
}

func TestDisplayAfterFullCycle(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.ctrl.Init())

	r.tickUntil(t, 20, from(logic.StateToggleSprinkler))
	assert.Equal(t, "02:45:00  #24.5°\n#75 %     #80 % ", r.lcd.Text())
}

type slowTemperature struct {
	active  atomic.Int32
	overlap atomic.Bool
}

func (s *slowTemperature) Read() (logic.Temperature, error) {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	time.Sleep(2 * time.Millisecond)
	s.active.Add(-1)
	return logic.Temperature{Whole: 20}, nil
}

func TestConcurrentTicksDoNotOverlap(t *testing.T) {
	r := newRig(t)
	slow := &slowTemperature{}
	r.ctrl.dev.Temperature = slow

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 300; j++ {
				r.ctrl.Tick()
			}
		}()
	}
	wg.Wait()
	assert.False(t, slow.overlap.Load())
}
