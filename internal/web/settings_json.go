package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/seat-heater/internal/logic"
)

// SettingsJSON is the JSON representation served at /settings.json and
// echoed back after a successful mutation.
type SettingsJSON struct {
	Settings SettingsInner `json:"settings"`
}

// SettingsInner contains the user preference details.
type SettingsInner struct {
	Mode           string `json:"mode"`
	Adaptive       bool   `json:"adaptive"`
	Level          int    `json:"level"`
	CheckOnce      bool   `json:"check_once"`
	AutoOffMinutes int    `json:"auto_off_minutes"`
	Source         string `json:"source"`
	ThresholdC     int    `json:"threshold"`
}

func formatSettingsJSON(s logic.Settings) []byte {
	sj := SettingsJSON{
		Settings: SettingsInner{
			Mode:           string(s.Mode),
			Adaptive:       s.Adaptive,
			Level:          s.FixedLevel,
			CheckOnce:      s.CheckOnce,
			AutoOffMinutes: int(s.AutoOff / time.Minute),
			Source:         string(s.Source),
			ThresholdC:     s.ThresholdC,
		},
	}
	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}
