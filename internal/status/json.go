package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/greenhouse/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Counter       uint16       `json:"counter"`
	Ready         bool         `json:"ready"`
	Readings      ReadingsJSON `json:"readings"`
	Outputs       OutputsJSON  `json:"outputs"`
	Ticks         int64        `json:"ticks"`
	FullCycles    int64        `json:"full_cycles"`
	DeviceErrors  int64        `json:"device_errors"`
	LastError     string       `json:"last_error,omitempty"`
	LastFullCycle string       `json:"last_full_cycle,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        *ConfigJSON  `json:"config,omitempty"`
}

// ReadingsJSON is the JSON representation of the last known readings.
type ReadingsJSON struct {
	Temperature     string `json:"temperature_c"`
	MoisturePercent int    `json:"moisture_percent"`
	LightPercent    int    `json:"light_percent"`
	Clock           string `json:"clock"`
}

// OutputsJSON is the JSON representation of the actuator outputs.
type OutputsJSON struct {
	Vent      string `json:"vent"`
	Sprinkler string `json:"sprinkler"`
	Bulb      string `json:"bulb"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	TickMs      int64            `json:"tick_ms"`
	HeartbeatMs int64            `json:"heartbeat_ms"`
	Broker      string           `json:"broker"`
	HTTPAddr    string           `json:"http_addr"`
	SerialPort  string           `json:"serial_port,omitempty"`
	Calibration CalibrationJSON  `json:"calibration"`
	Thresholds  logic.Thresholds `json:"thresholds"`
}

// CalibrationJSON is the JSON representation of the analog calibration.
type CalibrationJSON struct {
	AirRaw   uint16 `json:"air_raw"`
	WaterRaw uint16 `json:"water_raw"`
	DayRaw   uint16 `json:"day_raw"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:   snap.State.String(),
		Counter: snap.Counter,
		Ready:   snap.Ready,
		Readings: ReadingsJSON{
			Temperature:     snap.Readings.Temperature.String(),
			MoisturePercent: snap.Readings.MoisturePercent,
			LightPercent:    snap.Readings.LightPercent,
			Clock:           snap.Readings.Clock.String(),
		},
		Outputs: OutputsJSON{
			Vent:      logic.OnOff(snap.Outputs.Vent),
			Sprinkler: logic.OnOff(snap.Outputs.Sprinkler),
			Bulb:      logic.OnOff(snap.Outputs.Bulb),
		},
		Ticks:         snap.Ticks,
		FullCycles:    snap.FullCycles,
		DeviceErrors:  snap.DeviceErrors,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
	}
	if !snap.LastFullCycle.IsZero() {
		inner.LastFullCycle = snap.LastFullCycle.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildConfig(snap Snapshot) *ConfigJSON {
	cfg := snap.Config
	return &ConfigJSON{
		TickMs:      cfg.TickMs,
		HeartbeatMs: cfg.HeartbeatMs,
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		SerialPort:  cfg.SerialPort,
		Calibration: CalibrationJSON{
			AirRaw:   cfg.Calibration.AirRaw,
			WaterRaw: cfg.Calibration.WaterRaw,
			DayRaw:   cfg.Calibration.DayRaw,
		},
		Thresholds: cfg.Thresholds,
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	inner.Config = buildConfig(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// Only STARTUP carries the config block.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	if event == "STARTUP" {
		inner.Config = buildConfig(snap)
	}

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
