// Package actuate maps heating decisions onto per-zone hardware commands.
// It tracks per-zone success/failure and manual overrides, and isolates
// hardware faults to a single zone and a single write.
package actuate

import (
	"sync"

	"github.com/sweeney/seat-heater/internal/heater"
	"github.com/sweeney/seat-heater/internal/logic"
)

// Result reports the outcome of one zone's actuation in an Apply call.
type Result struct {
	Zone logic.Zone

	// Level is the level that was commanded (or would have been, when
	// Skipped or Err is set).
	Level int

	// Skipped means the zone was not written because the user manually
	// switched it off at the console.
	Skipped bool

	// ManualOverride means a console-selected level is in effect for
	// this zone instead of the engine's target.
	ManualOverride bool

	// OverrideDetected means the override was first noticed during this
	// Apply call.
	OverrideDetected bool

	// Err is the hardware write failure for this zone, if any. A failed
	// zone never blocks its sibling; the next decision event retries.
	Err error
}

// zoneState is the per-zone actuation bookkeeping. Mutated only by the
// Actuator's own methods.
type zoneState struct {
	lastSet          int
	wrote            bool // false until the first successful write
	manuallyDisabled bool
	overrideLevel    *int
}

// Actuator applies decisions to a heater controller. Safe for concurrent
// use; in practice all Apply calls run on the serial Worker.
type Actuator struct {
	mu       sync.Mutex
	ctrl     heater.Controller
	zoneIDs  map[logic.Zone]int
	states   map[logic.Zone]*zoneState
	prev     logic.Decision
	havePrev bool
}

// New creates an actuator for the given controller and role-to-zone-id
// mapping. The controller is injected; there is no ambient global
// hardware handle.
func New(ctrl heater.Controller, zoneIDs map[logic.Zone]int) *Actuator {
	states := make(map[logic.Zone]*zoneState, len(zoneIDs))
	for zone := range zoneIDs {
		states[zone] = &zoneState{}
	}
	return &Actuator{
		ctrl:    ctrl,
		zoneIDs: zoneIDs,
		states:  states,
	}
}

// Apply pushes one decision to the hardware, zone by zone. A write
// failure in one zone never prevents or rolls back the sibling's write.
// Hardware unavailability degrades to per-zone errors; the next Apply is
// the retry.
func (a *Actuator) Apply(d logic.Decision) []Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	// A timer-forced-off transition clears override and level state,
	// like an ignition-off does (the run loop signals that one via
	// ResetOverrides, since ignition is its input, not ours).
	if a.havePrev && d.TurnedOffByTimer && !a.prev.TurnedOffByTimer {
		a.resetLocked()
	}
	a.prev = d
	a.havePrev = true

	results := make([]Result, 0, len(a.zoneIDs))
	for _, zone := range logic.AllZones {
		id, ok := a.zoneIDs[zone]
		if !ok {
			continue
		}
		results = append(results, a.applyZone(zone, id, d))
	}
	return results
}

// applyZone runs the per-zone algorithm. Caller holds mu.
func (a *Actuator) applyZone(zone logic.Zone, id int, d logic.Decision) Result {
	st := a.states[zone]
	res := Result{Zone: zone}

	// Manual-override detection. Only defined for fixed mode; under
	// adaptive heating overrides are not tracked. Read-back failures
	// skip detection for this round, nothing more.
	if !d.Adaptive && st.wrote {
		cur, err := a.ctrl.Read(id)
		if err == nil && cur != st.lastSet {
			if cur == 0 && st.lastSet > 0 {
				st.manuallyDisabled = true
				res.OverrideDetected = true
			} else if cur > 0 {
				lv := cur
				st.overrideLevel = &lv
				res.OverrideDetected = true
			}
		}
	}

	// A zone the user switched off stays untouched until the override
	// state is cleared.
	if st.manuallyDisabled {
		res.Skipped = true
		res.ManualOverride = true
		return res
	}

	desired := 0
	if d.HasZone(zone) {
		desired = d.TargetLevel
	}
	if !d.Adaptive && st.overrideLevel != nil {
		desired = *st.overrideLevel
		res.ManualOverride = true
	}
	res.Level = desired

	if err := a.ctrl.Write(id, desired); err != nil {
		res.Err = err
		return res
	}
	st.lastSet = desired
	st.wrote = true
	return res
}

// ResetOverrides clears manual-override and level state for all zones.
// The run loop invokes it when ignition transitions to off or unknown.
func (a *Actuator) ResetOverrides() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

func (a *Actuator) resetLocked() {
	for _, st := range a.states {
		st.manuallyDisabled = false
		st.overrideLevel = nil
		st.lastSet = 0
		st.wrote = false
	}
}

// ZoneStatus is a read-only view of one zone's actuation state, for the
// status tracker.
type ZoneStatus struct {
	Zone             logic.Zone
	LastSetLevel     int
	ManuallyDisabled bool
	OverrideLevel    *int
}

// Status returns a snapshot of all zone states, in apply order.
func (a *Actuator) Status() []ZoneStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ZoneStatus, 0, len(a.states))
	for _, zone := range logic.AllZones {
		st, ok := a.states[zone]
		if !ok {
			continue
		}
		zs := ZoneStatus{
			Zone:             zone,
			LastSetLevel:     st.lastSet,
			ManuallyDisabled: st.manuallyDisabled,
		}
		if st.overrideLevel != nil {
			lv := *st.overrideLevel
			zs.OverrideLevel = &lv
		}
		out = append(out, zs)
	}
	return out
}
