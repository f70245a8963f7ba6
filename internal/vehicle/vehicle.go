// Package vehicle delivers ignition and climate events from the car's
// CAN bridge over MQTT, with abstraction for testing.
package vehicle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/seat-heater/internal/logic"
)

// Default topics published by the CAN bridge.
const (
	TopicIgnition = "car/vehicle/ignition"
	TopicClimate  = "car/vehicle/climate"
)

// Event is one update from the vehicle. Exactly one of Ignition and
// Climate is set.
type Event struct {
	Time     time.Time
	Ignition *logic.IgnitionState
	Climate  *logic.TemperatureSample
}

// Source delivers vehicle events until closed.
type Source interface {
	// Events returns the event channel. It is closed when the source
	// shuts down.
	Events() <-chan Event

	// Close stops the subscriptions.
	Close() error
}

// ignitionPayload is the CAN bridge's ignition message.
type ignitionPayload struct {
	State string `json:"state"`
}

// climatePayload is the CAN bridge's climate message. Missing sensors
// are omitted, not zeroed.
type climatePayload struct {
	Cabin   *float64 `json:"cabin,omitempty"`
	Ambient *float64 `json:"ambient,omitempty"`
}

// ParseIgnition decodes an ignition message. Unrecognized states map to
// Unknown rather than erroring: the decision engine treats Unknown as
// off, which is the safe reading of a garbled message.
func ParseIgnition(data []byte) (logic.IgnitionState, error) {
	var p ignitionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return logic.IgnitionUnknown, fmt.Errorf("parse ignition payload: %w", err)
	}
	switch strings.ToUpper(strings.TrimSpace(p.State)) {
	case "OFF":
		return logic.IgnitionOff, nil
	case "ACCESSORY", "ACC":
		return logic.IgnitionAccessory, nil
	case "START":
		return logic.IgnitionStart, nil
	case "RUN", "ON":
		return logic.IgnitionRun, nil
	default:
		return logic.IgnitionUnknown, nil
	}
}

// ParseClimate decodes a climate message. Absent fields stay nil.
func ParseClimate(data []byte) (logic.TemperatureSample, error) {
	var p climatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return logic.TemperatureSample{}, fmt.Errorf("parse climate payload: %w", err)
	}
	return logic.TemperatureSample{Cabin: p.Cabin, Ambient: p.Ambient}, nil
}
