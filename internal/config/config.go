// Package config loads the daemon's static configuration from YAML:
// broker address, vehicle topics, settings file location, and the GPIO
// wiring of the heater zones. The heartbeat interval stays on a flag.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/seat-heater/internal/heater"
	"github.com/sweeney/seat-heater/internal/logic"
	"github.com/sweeney/seat-heater/internal/vehicle"
)

// Config is the root configuration structure.
type Config struct {
	Broker       string       `yaml:"broker"`
	HTTPAddr     string       `yaml:"http_addr"`
	SettingsPath string       `yaml:"settings_path"`
	Topics       TopicsConfig `yaml:"topics"`
	GPIO         GPIOConfig   `yaml:"gpio"`
}

// TopicsConfig names the CAN bridge topics the daemon subscribes to.
type TopicsConfig struct {
	Ignition string `yaml:"ignition"`
	Climate  string `yaml:"climate"`
}

// GPIOConfig describes the heater switch board wiring.
type GPIOConfig struct {
	Chip  string       `yaml:"chip"`
	Zones []ZoneConfig `yaml:"zones"`
}

// ZoneConfig binds a seat role to a vendor zone id and its two selector
// line offsets.
type ZoneConfig struct {
	Role  string `yaml:"role"` // driver or passenger
	ID    int    `yaml:"id"`
	Lines []int  `yaml:"lines"` // exactly two BCM offsets (bit0, bit1)
}

// Default returns the configuration for a stock install.
func Default() Config {
	return Config{
		Broker:       "tcp://192.168.8.1:1883",
		HTTPAddr:     ":8090",
		SettingsPath: "/var/lib/seat-heater/settings.yaml",
		Topics: TopicsConfig{
			Ignition: vehicle.TopicIgnition,
			Climate:  vehicle.TopicClimate,
		},
		GPIO: GPIOConfig{
			Chip: "gpiochip0",
			Zones: []ZoneConfig{
				{Role: string(logic.ZoneDriver), ID: 1, Lines: []int{heater.DefaultDriverLines[0], heater.DefaultDriverLines[1]}},
				{Role: string(logic.ZonePassenger), ID: 2, Lines: []int{heater.DefaultPassengerLines[0], heater.DefaultPassengerLines[1]}},
			},
		},
	}
}

// Load reads a config file, filling gaps with defaults. A missing file
// yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for wiring mistakes.
func (c Config) Validate() error {
	if c.Broker == "" {
		return errors.New("broker must be set")
	}
	if c.Topics.Ignition == "" || c.Topics.Climate == "" {
		return errors.New("ignition and climate topics must be set")
	}
	if len(c.GPIO.Zones) == 0 {
		return errors.New("at least one gpio zone must be configured")
	}

	seenRole := map[string]bool{}
	seenID := map[int]bool{}
	for _, z := range c.GPIO.Zones {
		if z.Role != string(logic.ZoneDriver) && z.Role != string(logic.ZonePassenger) {
			return fmt.Errorf("zone role %q: must be driver or passenger", z.Role)
		}
		if seenRole[z.Role] {
			return fmt.Errorf("zone role %q configured twice", z.Role)
		}
		seenRole[z.Role] = true
		if seenID[z.ID] {
			return fmt.Errorf("zone id %d configured twice", z.ID)
		}
		seenID[z.ID] = true
		if len(z.Lines) != 2 {
			return fmt.Errorf("zone %q: need exactly 2 selector lines, got %d", z.Role, len(z.Lines))
		}
		if z.Lines[0] == z.Lines[1] {
			return fmt.Errorf("zone %q: selector lines must differ", z.Role)
		}
	}
	return nil
}

// ZoneIDs maps seat roles onto vendor zone ids.
func (c Config) ZoneIDs() map[logic.Zone]int {
	out := make(map[logic.Zone]int, len(c.GPIO.Zones))
	for _, z := range c.GPIO.Zones {
		out[logic.Zone(z.Role)] = z.ID
	}
	return out
}

// LineOffsets maps vendor zone ids onto their selector line pairs.
func (c Config) LineOffsets() map[int][2]int {
	out := make(map[int][2]int, len(c.GPIO.Zones))
	for _, z := range c.GPIO.Zones {
		out[z.ID] = [2]int{z.Lines[0], z.Lines[1]}
	}
	return out
}
