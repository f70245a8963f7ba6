package actuate

import (
	"errors"
	"testing"

	"github.com/sweeney/seat-heater/internal/heater"
	"github.com/sweeney/seat-heater/internal/logic"
)

const (
	zoneIDDriver    = 1
	zoneIDPassenger = 2
)

func newTestActuator() (*Actuator, *heater.FakeController) {
	ctrl := heater.NewFakeController(zoneIDDriver, zoneIDPassenger)
	a := New(ctrl, map[logic.Zone]int{
		logic.ZoneDriver:    zoneIDDriver,
		logic.ZonePassenger: zoneIDPassenger,
	})
	return a, ctrl
}

func activeDecision(level int, zones ...logic.Zone) logic.Decision {
	return logic.Decision{
		Active:      true,
		TargetLevel: level,
		Zones:       zones,
	}
}

func resultFor(t *testing.T, results []Result, zone logic.Zone) Result {
	t.Helper()
	for _, r := range results {
		if r.Zone == zone {
			return r
		}
	}
	t.Fatalf("no result for zone %s", zone)
	return Result{}
}

func TestApplyBothZones(t *testing.T) {
	a, ctrl := newTestActuator()

	results := a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if ctrl.Level(zoneIDDriver) != 2 || ctrl.Level(zoneIDPassenger) != 2 {
		t.Errorf("expected both zones at 2, got %d/%d",
			ctrl.Level(zoneIDDriver), ctrl.Level(zoneIDPassenger))
	}
}

func TestUnselectedZoneCommandedToZero(t *testing.T) {
	a, ctrl := newTestActuator()

	// Driver-only decision: passenger must be written to 0.
	a.Apply(activeDecision(3, logic.ZoneDriver))
	if ctrl.Level(zoneIDDriver) != 3 {
		t.Errorf("driver: expected 3, got %d", ctrl.Level(zoneIDDriver))
	}
	if ctrl.Level(zoneIDPassenger) != 0 {
		t.Errorf("passenger: expected 0, got %d", ctrl.Level(zoneIDPassenger))
	}

	found := false
	for _, op := range ctrl.Writes {
		if op.Zone == zoneIDPassenger && op.Level == 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected an explicit zero write for the passenger zone")
	}
}

func TestInactiveDecisionZerosZones(t *testing.T) {
	a, ctrl := newTestActuator()

	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	a.Apply(logic.Decision{Active: false, Zones: []logic.Zone{logic.ZoneDriver, logic.ZonePassenger}})

	if ctrl.Level(zoneIDDriver) != 0 || ctrl.Level(zoneIDPassenger) != 0 {
		t.Errorf("expected both zones zeroed, got %d/%d",
			ctrl.Level(zoneIDDriver), ctrl.Level(zoneIDPassenger))
	}
}

func TestWriteFailureIsolatedPerZone(t *testing.T) {
	a, ctrl := newTestActuator()
	busFault := errors.New("bus fault")
	ctrl.WriteErr[zoneIDDriver] = busFault

	results := a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))

	dr := resultFor(t, results, logic.ZoneDriver)
	if !errors.Is(dr.Err, busFault) {
		t.Errorf("driver: expected bus fault, got %v", dr.Err)
	}
	pr := resultFor(t, results, logic.ZonePassenger)
	if pr.Err != nil {
		t.Errorf("passenger: expected success, got %v", pr.Err)
	}
	if ctrl.Level(zoneIDPassenger) != 2 {
		t.Errorf("passenger must still be written, got %d", ctrl.Level(zoneIDPassenger))
	}

	// Failure does not block the retry: the next Apply writes again.
	ctrl.WriteErr = map[int]error{}
	results = a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	if dr := resultFor(t, results, logic.ZoneDriver); dr.Err != nil {
		t.Errorf("driver retry: %v", dr.Err)
	}
	if ctrl.Level(zoneIDDriver) != 2 {
		t.Errorf("driver: expected 2 after retry, got %d", ctrl.Level(zoneIDDriver))
	}
}

func TestHardwareUnavailableDegradesToNoop(t *testing.T) {
	a, ctrl := newTestActuator()
	ctrl.Unavailable = true

	results := a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	for _, r := range results {
		if !errors.Is(r.Err, heater.ErrUnavailable) {
			t.Errorf("zone %s: expected ErrUnavailable, got %v", r.Zone, r.Err)
		}
	}

	// Interface comes back: the next decision event is the retry.
	ctrl.Unavailable = false
	results = a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("zone %s: expected recovery, got %v", r.Zone, r.Err)
		}
	}
	if ctrl.Level(zoneIDDriver) != 2 {
		t.Errorf("expected level 2 after recovery, got %d", ctrl.Level(zoneIDDriver))
	}
}

func TestManualSwitchOffDisablesZone(t *testing.T) {
	a, ctrl := newTestActuator()

	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))

	// Passenger turns their seat off at the console.
	ctrl.SetLevel(zoneIDPassenger, 0)

	results := a.Apply(activeDecision(3, logic.ZoneDriver, logic.ZonePassenger))
	pr := resultFor(t, results, logic.ZonePassenger)
	if !pr.OverrideDetected {
		t.Error("expected override detection on passenger zone")
	}
	if !pr.Skipped {
		t.Error("expected passenger zone skipped")
	}
	if ctrl.Level(zoneIDPassenger) != 0 {
		t.Errorf("passenger must stay off, got %d", ctrl.Level(zoneIDPassenger))
	}
	// Driver unaffected.
	if ctrl.Level(zoneIDDriver) != 3 {
		t.Errorf("driver: expected 3, got %d", ctrl.Level(zoneIDDriver))
	}

	// The zone stays untouched on later applies too.
	results = a.Apply(activeDecision(1, logic.ZoneDriver, logic.ZonePassenger))
	if pr := resultFor(t, results, logic.ZonePassenger); !pr.Skipped {
		t.Error("passenger must stay skipped until overrides reset")
	}
}

func TestManualLevelOverrideTakesPrecedence(t *testing.T) {
	a, ctrl := newTestActuator()

	a.Apply(activeDecision(1, logic.ZoneDriver, logic.ZonePassenger))

	// Driver bumps their seat to 3 at the console.
	ctrl.SetLevel(zoneIDDriver, 3)

	results := a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	dr := resultFor(t, results, logic.ZoneDriver)
	if !dr.OverrideDetected || !dr.ManualOverride {
		t.Errorf("expected level override on driver, got %+v", dr)
	}
	if dr.Level != 3 {
		t.Errorf("expected override level 3 commanded, got %d", dr.Level)
	}
	if ctrl.Level(zoneIDDriver) != 3 {
		t.Errorf("driver hardware: expected 3, got %d", ctrl.Level(zoneIDDriver))
	}
	// Passenger follows the engine.
	if ctrl.Level(zoneIDPassenger) != 2 {
		t.Errorf("passenger: expected 2, got %d", ctrl.Level(zoneIDPassenger))
	}
}

func TestNoOverrideTrackingUnderAdaptive(t *testing.T) {
	a, ctrl := newTestActuator()

	d := activeDecision(2, logic.ZoneDriver, logic.ZonePassenger)
	d.Adaptive = true
	a.Apply(d)

	// Console change under adaptive mode: not tracked.
	ctrl.SetLevel(zoneIDDriver, 0)

	results := a.Apply(d)
	dr := resultFor(t, results, logic.ZoneDriver)
	if dr.OverrideDetected || dr.Skipped {
		t.Errorf("adaptive mode must not track overrides, got %+v", dr)
	}
	if ctrl.Level(zoneIDDriver) != 2 {
		t.Errorf("driver: expected engine level 2 restored, got %d", ctrl.Level(zoneIDDriver))
	}
}

func TestResetOverridesClearsState(t *testing.T) {
	a, ctrl := newTestActuator()

	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	ctrl.SetLevel(zoneIDPassenger, 0) // manual off
	ctrl.SetLevel(zoneIDDriver, 3)    // manual level
	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))

	// Ignition off: run loop resets override state.
	a.ResetOverrides()

	results := a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	for _, r := range results {
		if r.Skipped || r.ManualOverride {
			t.Errorf("zone %s: expected clean state after reset, got %+v", r.Zone, r)
		}
	}
	if ctrl.Level(zoneIDDriver) != 2 || ctrl.Level(zoneIDPassenger) != 2 {
		t.Errorf("expected both zones back at 2, got %d/%d",
			ctrl.Level(zoneIDDriver), ctrl.Level(zoneIDPassenger))
	}
}

func TestTimerOffTransitionClearsOverrides(t *testing.T) {
	a, ctrl := newTestActuator()

	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	ctrl.SetLevel(zoneIDPassenger, 0)
	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger)) // detects manual off

	// Timer fires: inactive decision with the timer flag set.
	off := logic.Decision{
		Active:           false,
		Zones:            []logic.Zone{logic.ZoneDriver, logic.ZonePassenger},
		TurnedOffByTimer: true,
	}
	results := a.Apply(off)
	for _, r := range results {
		if r.Skipped {
			t.Errorf("zone %s: timer-off transition must clear the disable flag", r.Zone)
		}
		if r.Err != nil {
			t.Errorf("zone %s: %v", r.Zone, r.Err)
		}
	}
	if ctrl.Level(zoneIDDriver) != 0 || ctrl.Level(zoneIDPassenger) != 0 {
		t.Errorf("timer-off must zero both zones, got %d/%d",
			ctrl.Level(zoneIDDriver), ctrl.Level(zoneIDPassenger))
	}
}

func TestReadErrorSkipsDetectionOnly(t *testing.T) {
	a, ctrl := newTestActuator()

	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	ctrl.ReadErr[zoneIDDriver] = errors.New("read fault")
	ctrl.SetLevel(zoneIDDriver, 0) // would be an override, but read fails

	results := a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	dr := resultFor(t, results, logic.ZoneDriver)
	if dr.OverrideDetected {
		t.Error("no detection possible without a read-back")
	}
	if dr.Err != nil {
		t.Errorf("write must still happen: %v", dr.Err)
	}
	if ctrl.Level(zoneIDDriver) != 2 {
		t.Errorf("expected engine level re-applied, got %d", ctrl.Level(zoneIDDriver))
	}
}

func TestStatusSnapshot(t *testing.T) {
	a, ctrl := newTestActuator()

	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))
	ctrl.SetLevel(zoneIDDriver, 3)
	a.Apply(activeDecision(2, logic.ZoneDriver, logic.ZonePassenger))

	status := a.Status()
	if len(status) != 2 {
		t.Fatalf("expected 2 zone statuses, got %d", len(status))
	}
	if status[0].Zone != logic.ZoneDriver {
		t.Fatalf("expected driver first, got %s", status[0].Zone)
	}
	if status[0].OverrideLevel == nil || *status[0].OverrideLevel != 3 {
		t.Errorf("driver: expected override level 3, got %v", status[0].OverrideLevel)
	}
	if status[1].ManuallyDisabled {
		t.Error("passenger: must not be disabled")
	}
}
