// Package status provides a thread-safe status tracker for the greenhouse controller.
// It is written by the control loop and read by the HTTP handlers and MQTT events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/greenhouse/internal/cycle"
	"github.com/sweeney/greenhouse/internal/logic"
)

// Config contains controller configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	SerialPort  string
	Calibration logic.Calibration
	Thresholds  logic.Thresholds
}

// Snapshot is a point-in-time view of controller state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State    logic.State
	Counter  uint16
	Readings logic.Readings
	Outputs  logic.Outputs

	// Ready is set once the first full sensor cycle has completed.
	Ready         bool
	Ticks         int64
	FullCycles    int64
	DeviceErrors  int64
	LastError     string
	LastErrorAt   time.Time
	LastFullCycle time.Time

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateIdle,
			Counter:   logic.CycleLength,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Record folds one tick report into the tracked state.
// Called from runLoop on every tick.
func (t *Tracker) Record(rep cycle.Report, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.State = rep.To
	t.snap.Counter = rep.Counter
	t.snap.Readings = rep.Readings
	t.snap.Outputs = rep.Outputs
	t.snap.Ticks++
	if rep.Err != nil {
		t.snap.DeviceErrors++
		t.snap.LastError = rep.Err.Error()
		t.snap.LastErrorAt = at
	}
	if rep.FullCycle {
		t.snap.FullCycles++
		t.snap.LastFullCycle = at
		t.snap.Ready = true
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the controller state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
