// Package mqtt publishes seat-heater events with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/seat-heater/internal/actuate"
	"github.com/sweeney/seat-heater/internal/logic"
)

// Topic is the MQTT topic for heating decision events.
const Topic = "car/seatheat/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "car/seatheat/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishDecision sends a heating decision and its actuation
	// outcome to the broker. Returns error if publishing fails (should
	// not crash the process).
	PublishDecision(event DecisionEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// DecisionEvent represents one heating decision and what actuation
// made of it.
type DecisionEvent struct {
	Timestamp time.Time
	Decision  logic.Decision
	Results   []actuate.Result
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	SeatHeat SeatHeatPayload `json:"seatheat"`
}

// SeatHeatPayload contains the decision event details.
type SeatHeatPayload struct {
	Timestamp string        `json:"timestamp"`
	Active    bool          `json:"active"`
	Level     int           `json:"level"`
	Zones     []string      `json:"zones"`
	Adaptive  bool          `json:"adaptive"`
	TimerOff  bool          `json:"timer_off"`
	Reason    string        `json:"reason"`
	Detail    string        `json:"detail,omitempty"`
	Results   []ZonePayload `json:"zone_results,omitempty"`
}

// ZonePayload contains one zone's actuation outcome.
type ZonePayload struct {
	Zone     string `json:"zone"`
	Level    int    `json:"level"`
	OK       bool   `json:"ok"`
	Skipped  bool   `json:"skipped,omitempty"`
	Override bool   `json:"manual_override,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FormatDecisionPayload creates the JSON payload for a decision event.
func FormatDecisionPayload(event DecisionEvent) ([]byte, error) {
	d := event.Decision

	zones := make([]string, 0, len(d.Zones))
	for _, z := range d.Zones {
		zones = append(zones, string(z))
	}

	var results []ZonePayload
	for _, r := range event.Results {
		zp := ZonePayload{
			Zone:     string(r.Zone),
			Level:    r.Level,
			OK:       r.Err == nil && !r.Skipped,
			Skipped:  r.Skipped,
			Override: r.ManualOverride,
		}
		if r.Err != nil {
			zp.Error = r.Err.Error()
		}
		results = append(results, zp)
	}

	payload := Payload{
		SeatHeat: SeatHeatPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Active:    d.Active,
			Level:     d.TargetLevel,
			Zones:     zones,
			Adaptive:  d.Adaptive,
			TimerOff:  d.TurnedOffByTimer,
			Reason:    string(d.Reason),
			Detail:    d.Detail,
			Results:   results,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
