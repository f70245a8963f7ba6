package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/seat-heater/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ignition      string       `json:"ignition"`
	Cabin         *float64     `json:"cabin_temp,omitempty"`
	Ambient       *float64     `json:"ambient_temp,omitempty"`
	Heating       HeatingJSON  `json:"heating"`
	Zones         []ZoneJSON   `json:"zones"`
	Settings      SettingsJSON `json:"settings"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// HeatingJSON is the JSON representation of the current decision.
type HeatingJSON struct {
	Active      bool     `json:"active"`
	Level       int      `json:"level"`
	Zones       []string `json:"zones"`
	TimerOff    bool     `json:"timer_off"`
	Reason      string   `json:"reason"`
	Detail      string   `json:"detail,omitempty"`
	ActivatedAt string   `json:"activated_at,omitempty"`
}

// ZoneJSON is the JSON representation of one zone's actuation state.
type ZoneJSON struct {
	Zone             string `json:"zone"`
	LastSetLevel     int    `json:"last_set_level"`
	ManuallyDisabled bool   `json:"manually_disabled"`
	OverrideLevel    *int   `json:"manual_level_override,omitempty"`
}

// SettingsJSON is the JSON representation of the user settings.
type SettingsJSON struct {
	Mode           string `json:"mode"`
	Adaptive       bool   `json:"adaptive"`
	Level          int    `json:"level"`
	CheckOnce      bool   `json:"check_once_on_startup"`
	AutoOffMinutes int    `json:"auto_off_minutes"`
	Source         string `json:"temperature_source"`
	ThresholdC     int    `json:"threshold_c"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Activations   int `json:"activations"`
	Deactivations int `json:"deactivations"`
	TimerOffs     int `json:"timer_offs"`
	Overrides     int `json:"manual_overrides"`
	WriteFailures int `json:"write_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker        string `json:"broker"`
	HTTPPort      string `json:"http_port"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	SettingsPath  string `json:"settings_path,omitempty"`
	IgnitionTopic string `json:"ignition_topic"`
	ClimateTopic  string `json:"climate_topic"`
}

func buildInner(snap Snapshot) StatusInner {
	ign := string(snap.Ignition)
	if ign == "" {
		ign = string(logic.IgnitionUnknown)
	}

	d := snap.Decision
	heating := HeatingJSON{
		Active:   d.Active,
		Level:    d.TargetLevel,
		Zones:    make([]string, 0, len(d.Zones)),
		TimerOff: d.TurnedOffByTimer,
		Reason:   string(d.Reason),
		Detail:   d.Detail,
	}
	for _, z := range d.Zones {
		heating.Zones = append(heating.Zones, string(z))
	}
	if !d.ActivatedAt.IsZero() {
		heating.ActivatedAt = d.ActivatedAt.UTC().Format(time.RFC3339)
	}

	zones := make([]ZoneJSON, 0, len(snap.Zones))
	for _, z := range snap.Zones {
		zones = append(zones, ZoneJSON{
			Zone:             string(z.Zone),
			LastSetLevel:     z.LastSetLevel,
			ManuallyDisabled: z.ManuallyDisabled,
			OverrideLevel:    z.OverrideLevel,
		})
	}

	return StatusInner{
		Ignition: ign,
		Cabin:    snap.Temperature.Cabin,
		Ambient:  snap.Temperature.Ambient,
		Heating:  heating,
		Zones:    zones,
		Settings: SettingsJSON{
			Mode:           string(snap.Settings.Mode),
			Adaptive:       snap.Settings.Adaptive,
			Level:          snap.Settings.FixedLevel,
			CheckOnce:      snap.Settings.CheckOnce,
			AutoOffMinutes: int(snap.Settings.AutoOff / time.Minute),
			Source:         string(snap.Settings.Source),
			ThresholdC:     snap.Settings.ThresholdC,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Activations:   snap.Counts.Activations,
			Deactivations: snap.Counts.Deactivations,
			TimerOffs:     snap.Counts.TimerOffs,
			Overrides:     snap.Counts.Overrides,
			WriteFailures: snap.Counts.WriteFailures,
		},
		Config: ConfigJSON{
			Broker:        snap.Config.Broker,
			HTTPPort:      snap.Config.HTTPPort,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			SettingsPath:  snap.Config.SettingsPath,
			IgnitionTopic: snap.Config.IgnitionTopic,
			ClimateTopic:  snap.Config.ClimateTopic,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
