// Package mqtt publishes greenhouse readings and lifecycle events to a broker.
// Publishing is outbound only: the controller never subscribes.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/greenhouse/internal/logic"
)

// TopicReadings carries one message per completed full sensor cycle.
const TopicReadings = "greenhouse/controller/readings"

// TopicSystem carries lifecycle events (startup, shutdown, heartbeat, last will).
const TopicSystem = "greenhouse/controller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishReadings sends the readings and outputs of a full cycle.
	// Errors are reported, never fatal to the control loop.
	PublishReadings(event ReadingsEvent) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ReadingsEvent is the state at the end of a full cycle.
type ReadingsEvent struct {
	Timestamp time.Time
	Readings  logic.Readings
	Outputs   logic.Outputs
}

// SystemEvent is a lifecycle event.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // STARTUP, SHUTDOWN, HEARTBEAT, RECONNECTED
	Reason     string // signal name, shutdown only
	RawPayload []byte // pre-formatted status JSON, returned verbatim when set
	Retained   bool
}

// Payload is the readings message body.
type Payload struct {
	Greenhouse GreenhousePayload `json:"greenhouse"`
}

// GreenhousePayload holds one cycle's readings and outputs.
type GreenhousePayload struct {
	Timestamp       string `json:"timestamp"`
	Clock           string `json:"clock"`
	TemperatureC    string `json:"temperature_c"`
	MoisturePercent int    `json:"moisture_percent"`
	LightPercent    int    `json:"light_percent"`
	Vent            string `json:"vent"`
	Sprinkler       string `json:"sprinkler"`
	Bulb            string `json:"bulb"`
}

// FormatPayload creates the JSON body for a readings event.
func FormatPayload(event ReadingsEvent) ([]byte, error) {
	r, o := event.Readings, event.Outputs
	return json.Marshal(Payload{
		Greenhouse: GreenhousePayload{
			Timestamp:       event.Timestamp.UTC().Format(time.RFC3339),
			Clock:           r.Clock.String(),
			TemperatureC:    r.Temperature.String(),
			MoisturePercent: r.MoisturePercent,
			LightPercent:    r.LightPercent,
			Vent:            logic.OnOff(o.Vent),
			Sprinkler:       logic.OnOff(o.Sprinkler),
			Bulb:            logic.OnOff(o.Bulb),
		},
	})
}

// SystemPayload is the body of a simple lifecycle event (last will, reconnected).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON body for a lifecycle event.
// A set RawPayload is returned as is.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
