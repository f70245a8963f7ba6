package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/seat-heater/internal/logic"
)

// fileSettings is the on-disk YAML shape. Key names follow the vendor
// settings key space.
type fileSettings struct {
	Mode       string `yaml:"seatAutoHeatMode"`
	Adaptive   bool   `yaml:"adaptiveHeating"`
	Level      int    `yaml:"heatingLevel"`
	CheckOnce  bool   `yaml:"checkTempOnceOnStartup"`
	AutoOffMin int    `yaml:"autoOffTimerMinutes"`
	Source     string `yaml:"temperatureSource"`
	ThresholdC int    `yaml:"temperatureThreshold"`
}

func toFile(s logic.Settings) fileSettings {
	return fileSettings{
		Mode:       string(s.Mode),
		Adaptive:   s.Adaptive,
		Level:      s.FixedLevel,
		CheckOnce:  s.CheckOnce,
		AutoOffMin: int(s.AutoOff / time.Minute),
		Source:     string(s.Source),
		ThresholdC: s.ThresholdC,
	}
}

func fromFile(f fileSettings) (logic.Settings, error) {
	s := Defaults()

	switch m := logic.Mode(f.Mode); m {
	case logic.ModeOff, logic.ModeDriver, logic.ModePassenger, logic.ModeBoth:
		s.Mode = m
	default:
		return s, fmt.Errorf("invalid seatAutoHeatMode %q", f.Mode)
	}
	switch src := logic.TemperatureSource(f.Source); src {
	case logic.SourceCabin, logic.SourceAmbient:
		s.Source = src
	default:
		return s, fmt.Errorf("invalid temperatureSource %q", f.Source)
	}
	if f.Level < 0 || f.Level > 3 {
		return s, fmt.Errorf("heatingLevel %d out of range [0,3]", f.Level)
	}
	if f.AutoOffMin < 0 || f.AutoOffMin > MaxAutoOffMinutes {
		return s, fmt.Errorf("autoOffTimerMinutes %d out of range [0,%d]", f.AutoOffMin, MaxAutoOffMinutes)
	}
	if f.ThresholdC < MinThresholdC || f.ThresholdC > MaxThresholdC {
		return s, fmt.Errorf("temperatureThreshold %d out of range [%d,%d]", f.ThresholdC, MinThresholdC, MaxThresholdC)
	}

	s.Adaptive = f.Adaptive
	s.FixedLevel = f.Level
	s.CheckOnce = f.CheckOnce
	s.AutoOff = time.Duration(f.AutoOffMin) * time.Minute
	s.ThresholdC = f.ThresholdC
	return s, nil
}

// Load reads the settings file and returns a store bound to it. A
// missing file yields defaults; it is created on the first mutation.
func Load(path string, onSaveError func(error)) (*Store, error) {
	st := NewStore(Defaults())
	st.path = path
	st.onSaveError = onSaveError

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	var f fileSettings
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	s, err := fromFile(f)
	if err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	st.s = s
	return st, nil
}

// save writes the settings atomically: temp file in the same directory,
// then rename.
func save(path string, s logic.Settings) error {
	data, err := yaml.Marshal(toFile(s))
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
