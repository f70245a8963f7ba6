package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sweeney/seat-heater/internal/logic"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker != Default().Broker {
		t.Errorf("expected default broker, got %s", cfg.Broker)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `broker: tcp://10.0.0.5:1883
http_addr: ":9000"
topics:
  ignition: car/bmw/ignition
  climate: car/bmw/climate
gpio:
  chip: gpiochip2
  zones:
    - role: driver
      id: 21
      lines: [4, 17]
    - role: passenger
      id: 22
      lines: [27, 22]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker != "tcp://10.0.0.5:1883" {
		t.Errorf("broker: got %s", cfg.Broker)
	}
	if cfg.Topics.Ignition != "car/bmw/ignition" {
		t.Errorf("ignition topic: got %s", cfg.Topics.Ignition)
	}
	if cfg.GPIO.Chip != "gpiochip2" {
		t.Errorf("chip: got %s", cfg.GPIO.Chip)
	}

	ids := cfg.ZoneIDs()
	if ids[logic.ZoneDriver] != 21 || ids[logic.ZonePassenger] != 22 {
		t.Errorf("zone ids: got %v", ids)
	}
	offsets := cfg.LineOffsets()
	if offsets[21] != [2]int{4, 17} {
		t.Errorf("driver lines: got %v", offsets[21])
	}
}

func TestValidateRejectsBadZones(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty broker", func(c *Config) { c.Broker = "" }},
		{"missing topic", func(c *Config) { c.Topics.Climate = "" }},
		{"no zones", func(c *Config) { c.GPIO.Zones = nil }},
		{"bad role", func(c *Config) { c.GPIO.Zones[0].Role = "rear-left" }},
		{"duplicate role", func(c *Config) { c.GPIO.Zones[1].Role = "driver" }},
		{"duplicate id", func(c *Config) { c.GPIO.Zones[1].ID = c.GPIO.Zones[0].ID }},
		{"one line", func(c *Config) { c.GPIO.Zones[0].Lines = []int{5} }},
		{"same lines", func(c *Config) { c.GPIO.Zones[0].Lines = []int{5, 5} }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
