// Package status provides a thread-safe status tracker for the
// seat-heater daemon. It is read by the HTTP handlers and by the MQTT
// system-event payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/seat-heater/internal/actuate"
	"github.com/sweeney/seat-heater/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Broker        string
	HTTPPort      string
	HeartbeatMs   int64
	SettingsPath  string
	IgnitionTopic string
	ClimateTopic  string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Ignition      logic.IgnitionState
	Temperature   logic.TemperatureSample
	Decision      logic.Decision
	Zones         []actuate.ZoneStatus
	Settings      logic.Settings
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Ignition:  logic.IgnitionUnknown,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the latest decision, zone states, and event counts.
// Called from the run loop after every evaluation.
func (t *Tracker) Update(d logic.Decision, zones []actuate.ZoneStatus, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Decision = d
	t.snap.Zones = zones
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetVehicle records the latest observed ignition state and temperatures.
func (t *Tracker) SetVehicle(ign logic.IgnitionState, temp logic.TemperatureSample) {
	t.mu.Lock()
	t.snap.Ignition = ign
	t.snap.Temperature = temp
	t.mu.Unlock()
}

// SetSettings records the settings snapshot used by the last evaluation.
func (t *Tracker) SetSettings(s logic.Settings) {
	t.mu.Lock()
	t.snap.Settings = s
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
