// Package logic contains the pure heating decision engine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// IgnitionState represents the vehicle power mode.
type IgnitionState string

const (
	IgnitionOff       IgnitionState = "OFF"
	IgnitionAccessory IgnitionState = "ACCESSORY"
	IgnitionStart     IgnitionState = "START"
	IgnitionRun       IgnitionState = "RUN"
	IgnitionUnknown   IgnitionState = "UNKNOWN"
)

// IsOn reports whether the engine is allowed to heat in this state.
// Unknown is treated as off: never heat on an ambiguous ignition state.
func (s IgnitionState) IsOn() bool {
	return s == IgnitionRun || s == IgnitionStart || s == IgnitionAccessory
}

// IsOff reports whether the state resets latch and timer bookkeeping.
func (s IgnitionState) IsOff() bool {
	return !s.IsOn()
}

// Mode selects which seats participate in automatic heating.
type Mode string

const (
	ModeOff       Mode = "off"
	ModeDriver    Mode = "driver"
	ModePassenger Mode = "passenger"
	ModeBoth      Mode = "both"
)

// Zone is a heater-controlled seat role.
type Zone string

const (
	ZoneDriver    Zone = "driver"
	ZonePassenger Zone = "passenger"
)

// AllZones lists every zone the actuation layer manages, in apply order.
var AllZones = []Zone{ZoneDriver, ZonePassenger}

// TemperatureSource selects which sensor drives the decision.
type TemperatureSource string

const (
	SourceCabin   TemperatureSource = "cabin"
	SourceAmbient TemperatureSource = "ambient"
)

// TemperatureSample is one snapshot from the vehicle's climate sensors.
// A nil field means the sensor has not reported yet; that is a valid,
// expected state, not an error.
type TemperatureSample struct {
	Cabin   *float64
	Ambient *float64
}

// Select returns the temperature for the given source, or nil if absent.
func (s TemperatureSample) Select(src TemperatureSource) *float64 {
	if src == SourceAmbient {
		return s.Ambient
	}
	return s.Cabin
}

// Settings is an atomic snapshot of the user configuration. The engine
// never reads fields from different moments: the caller snapshots the
// store once per evaluation.
type Settings struct {
	Mode       Mode
	Adaptive   bool
	FixedLevel int // 0..3, used when Adaptive is false
	CheckOnce  bool
	AutoOff    time.Duration // 0 = disabled
	Source     TemperatureSource
	ThresholdC int // °C, used when Adaptive is false
}

// Reason explains which branch produced a decision. Diagnostic only;
// control logic must never read it.
type Reason string

const (
	ReasonIgnitionOff       Reason = "IGNITION_OFF"
	ReasonModeOff           Reason = "MODE_OFF"
	ReasonSensorUnavailable Reason = "SENSOR_UNAVAILABLE"
	ReasonBelowThreshold    Reason = "BELOW_THRESHOLD"
	ReasonAboveThreshold    Reason = "ABOVE_THRESHOLD"
	ReasonLatched           Reason = "LATCHED"
	ReasonTimerExpired      Reason = "TIMER_EXPIRED"
)

// Decision is the engine's output for one evaluation.
type Decision struct {
	Active           bool
	TargetLevel      int // 0..3; always 0 when Active is false
	Zones            []Zone
	Adaptive         bool // copied from settings; actuation needs it for override tracking
	TurnedOffByTimer bool
	ActivatedAt      time.Time // zero when heating is not active or timer is disabled
	Reason           Reason
	Detail           string // human-readable branch detail, e.g. "cabin 8.5°C < 15°C"
}

// HasZone reports whether the zone is selected by this decision.
func (d Decision) HasZone(z Zone) bool {
	for _, zone := range d.Zones {
		if zone == z {
			return true
		}
	}
	return false
}

// Input is everything one evaluation depends on.
type Input struct {
	Ignition    IgnitionState
	Temperature TemperatureSample
	Settings    Settings
	Time        time.Time
}

// EventCounts tracks decision and actuation outcomes since startup.
type EventCounts struct {
	Activations   int
	Deactivations int
	TimerOffs     int
	Overrides     int
	WriteFailures int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
