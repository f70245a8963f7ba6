package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/seat-heater/internal/logic"
)

func TestDefaults(t *testing.T) {
	s := Defaults()
	if s.Mode != logic.ModeOff {
		t.Errorf("expected mode off, got %s", s.Mode)
	}
	if s.ThresholdC != 15 {
		t.Errorf("expected threshold 15, got %d", s.ThresholdC)
	}
	if s.FixedLevel != 2 {
		t.Errorf("expected level 2, got %d", s.FixedLevel)
	}
	if s.AutoOff != 0 {
		t.Errorf("expected auto-off disabled, got %v", s.AutoOff)
	}
	if s.Source != logic.SourceCabin {
		t.Errorf("expected cabin source, got %s", s.Source)
	}
}

func TestMutatorsNotify(t *testing.T) {
	st := NewStore(Defaults())

	if err := st.SetMode(logic.ModeBoth); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	select {
	case <-st.Changed():
	default:
		t.Fatal("expected change notification after SetMode")
	}

	if got := st.Snapshot().Mode; got != logic.ModeBoth {
		t.Errorf("expected mode both, got %s", got)
	}
}

func TestNotificationsCoalesce(t *testing.T) {
	st := NewStore(Defaults())

	st.SetAdaptive(true)
	st.SetCheckOnce(true)
	if err := st.SetThreshold(5); err != nil {
		t.Fatalf("SetThreshold: %v", err)
	}

	// Three mutations, one pending signal.
	select {
	case <-st.Changed():
	default:
		t.Fatal("expected a pending change signal")
	}
	select {
	case <-st.Changed():
		t.Fatal("signals must coalesce, got a second one")
	default:
	}
}

func TestValidation(t *testing.T) {
	st := NewStore(Defaults())

	if err := st.SetMode("sideways"); err == nil {
		t.Error("expected error for invalid mode")
	}
	if err := st.SetFixedLevel(4); err == nil {
		t.Error("expected error for level 4")
	}
	if err := st.SetFixedLevel(-1); err == nil {
		t.Error("expected error for level -1")
	}
	if err := st.SetAutoOffMinutes(21); err == nil {
		t.Error("expected error for auto-off 21")
	}
	if err := st.SetSource("engine-bay"); err == nil {
		t.Error("expected error for invalid source")
	}
	if err := st.SetThreshold(100); err == nil {
		t.Error("expected error for threshold 100")
	}

	// Rejected mutations leave the store untouched and signal nothing.
	select {
	case <-st.Changed():
		t.Fatal("rejected mutation must not notify")
	default:
	}
	if st.Snapshot() != Defaults() {
		t.Error("rejected mutations must not change settings")
	}
}

func TestAutoOffMinutesToDuration(t *testing.T) {
	st := NewStore(Defaults())
	if err := st.SetAutoOffMinutes(5); err != nil {
		t.Fatalf("SetAutoOffMinutes: %v", err)
	}
	if got := st.Snapshot().AutoOff; got != 5*time.Minute {
		t.Errorf("expected 5m, got %v", got)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	st, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Snapshot() != Defaults() {
		t.Error("expected defaults for a missing file")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	st, err := Load(path, func(err error) { t.Errorf("save error: %v", err) })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := st.SetMode(logic.ModeDriver); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	st.SetAdaptive(true)
	if err := st.SetAutoOffMinutes(10); err != nil {
		t.Fatalf("SetAutoOffMinutes: %v", err)
	}
	if err := st.SetThreshold(8); err != nil {
		t.Fatalf("SetThreshold: %v", err)
	}

	st2, err := Load(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	s := st2.Snapshot()
	if s.Mode != logic.ModeDriver {
		t.Errorf("mode: got %s, want driver", s.Mode)
	}
	if !s.Adaptive {
		t.Error("adaptive: expected true")
	}
	if s.AutoOff != 10*time.Minute {
		t.Errorf("auto-off: got %v, want 10m", s.AutoOff)
	}
	if s.ThresholdC != 8 {
		t.Errorf("threshold: got %d, want 8", s.ThresholdC)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "seatAutoHeatMode: both\ntemperatureSource: cabin\nheatingLevel: 9\ntemperatureThreshold: 15\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, nil); err == nil {
		t.Error("expected error for heatingLevel 9")
	}
}

func TestLoadVendorKeyNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `seatAutoHeatMode: passenger
adaptiveHeating: false
heatingLevel: 1
checkTempOnceOnStartup: true
autoOffTimerMinutes: 15
temperatureSource: ambient
temperatureThreshold: 12
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := st.Snapshot()
	if s.Mode != logic.ModePassenger || !s.CheckOnce || s.Source != logic.SourceAmbient {
		t.Errorf("unexpected settings: %+v", s)
	}
	if s.AutoOff != 15*time.Minute || s.FixedLevel != 1 || s.ThresholdC != 12 {
		t.Errorf("unexpected settings: %+v", s)
	}
}
