package logic

import (
	"fmt"
	"time"
)

// adaptiveThresholdC is the activation threshold used in adaptive mode.
// It is fixed and independent of the user-configured threshold.
const adaptiveThresholdC = 10.0

// Engine combines ignition state, temperature and settings into heating
// decisions. It is a pure state machine: Evaluate never blocks, never
// touches hardware, and always produces a decision for any input.
type Engine struct {
	latchArmed  bool
	activatedAt time.Time // zero = no running auto-off timer
	timerOff    bool
	prevActive  bool

	startTime     time.Time
	lastHeartbeat time.Time
	counts        EventCounts
}

// NewEngine creates a decision engine. The startTime is used for
// calculating uptime in heartbeat events.
func NewEngine(startTime time.Time) *Engine {
	return &Engine{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Reset clears latch and timer state. Called whenever a setting mutates,
// so the next evaluation behaves like a fresh startup.
func (e *Engine) Reset() {
	e.latchArmed = false
	e.activatedAt = time.Time{}
	e.timerOff = false
	// Forget the previous activation edge as well: if heating stays on
	// across the mutation, the auto-off timer must re-arm from the next
	// evaluation, not keep a cleared epoch.
	e.prevActive = false
}

// Evaluate computes the heating decision for one input snapshot and
// updates latch/timer state. It is a total function: every input
// combination yields a decision, absence of data included.
func (e *Engine) Evaluate(in Input) Decision {
	s := in.Settings

	d := Decision{
		Adaptive: s.Adaptive,
		Zones:    zonesFor(s.Mode),
	}

	// Ignition off (or unknown, treated as off for safety) resets
	// everything and forces an inactive decision.
	if in.Ignition.IsOff() {
		e.latchArmed = false
		e.activatedAt = time.Time{}
		e.timerOff = false
		e.finishEdge(&d, false, in, s)
		d.Reason = ReasonIgnitionOff
		d.Detail = fmt.Sprintf("ignition %s", in.Ignition)
		return d
	}

	if s.Mode == ModeOff {
		e.finishEdge(&d, false, in, s)
		d.Reason = ReasonModeOff
		d.Detail = "heating mode off"
		return d
	}

	temp := in.Temperature.Select(s.Source)

	var raw bool
	switch {
	case s.CheckOnce && e.latchArmed:
		// Decision was frozen at startup; temperature changes are
		// ignored for the remainder of this ignition cycle.
		raw = e.prevActive
		d.Reason = ReasonLatched
		d.Detail = fmt.Sprintf("latched %s since startup", onOff(raw))

	case temp == nil:
		// Fail safe: never heat on unknown sensor state.
		raw = false
		d.Reason = ReasonSensorUnavailable
		d.Detail = fmt.Sprintf("%s temperature not available", s.Source)

	default:
		threshold := float64(s.ThresholdC)
		if s.Adaptive {
			threshold = adaptiveThresholdC
		}
		raw = *temp < threshold
		if raw {
			d.Reason = ReasonBelowThreshold
		} else {
			d.Reason = ReasonAboveThreshold
		}
		d.Detail = fmt.Sprintf("%s %.1f°C vs %.1f°C", s.Source, *temp, threshold)
	}

	if s.CheckOnce && temp != nil && !e.latchArmed {
		// Freeze the decision for this ignition cycle.
		e.latchArmed = true
	}

	// Auto-off timer. Once expired it holds the decision off until the
	// next ignition cycle or settings change.
	if s.AutoOff > 0 && !e.activatedAt.IsZero() && in.Time.Sub(e.activatedAt) >= s.AutoOff {
		if !e.timerOff {
			e.timerOff = true
			e.counts.TimerOffs++
		}
	}
	if e.timerOff {
		d.Reason = ReasonTimerExpired
		d.Detail = fmt.Sprintf("auto-off after %v", s.AutoOff)
	}

	active := raw && !e.timerOff
	d.TurnedOffByTimer = e.timerOff
	e.finishEdge(&d, active, in, s)

	if d.Active {
		if s.Adaptive {
			d.TargetLevel = AdaptiveLevel(temp)
		} else {
			d.TargetLevel = clampLevel(s.FixedLevel)
		}
	}
	return d
}

// finishEdge performs activation-edge bookkeeping and stamps the decision.
func (e *Engine) finishEdge(d *Decision, active bool, in Input, s Settings) {
	if active && !e.prevActive {
		if s.AutoOff > 0 {
			e.activatedAt = in.Time
		} else {
			e.activatedAt = time.Time{}
		}
		e.counts.Activations++
	}
	if !active && e.prevActive {
		e.activatedAt = time.Time{}
		e.counts.Deactivations++
	}
	e.prevActive = active
	d.Active = active
	d.ActivatedAt = e.activatedAt
}

// AdaptiveLevel maps a temperature onto a heater level. A nil temperature
// resolves to 0 (fail safe).
func AdaptiveLevel(temp *float64) int {
	switch {
	case temp == nil:
		return 0
	case *temp <= 0:
		return 3
	case *temp < 5:
		return 2
	case *temp < adaptiveThresholdC:
		return 1
	default:
		return 0
	}
}

func zonesFor(m Mode) []Zone {
	switch m {
	case ModeDriver:
		return []Zone{ZoneDriver}
	case ModePassenger:
		return []Zone{ZonePassenger}
	case ModeBoth:
		return []Zone{ZoneDriver, ZonePassenger}
	default:
		return nil
	}
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 3 {
		return 3
	}
	return level
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Same reports whether two decisions command the same actuation. Reason
// and detail are diagnostic and deliberately excluded.
func (d Decision) Same(other Decision) bool {
	if d.Active != other.Active ||
		d.TargetLevel != other.TargetLevel ||
		d.Adaptive != other.Adaptive ||
		d.TurnedOffByTimer != other.TurnedOffByTimer ||
		len(d.Zones) != len(other.Zones) {
		return false
	}
	for i := range d.Zones {
		if d.Zones[i] != other.Zones[i] {
			return false
		}
	}
	return true
}

// RecordOverride folds a manual-override detection into the counters.
func (e *Engine) RecordOverride() {
	e.counts.Overrides++
}

// RecordWriteFailure folds a hardware write failure into the counters.
func (e *Engine) RecordWriteFailure() {
	e.counts.WriteFailures++
}

// EventCountsSnapshot returns a copy of the current event counts.
func (e *Engine) EventCountsSnapshot() EventCounts {
	return e.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if the interval has not
// elapsed or if interval is <= 0 (disabled).
func (e *Engine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(e.lastHeartbeat) < interval {
		return nil
	}
	e.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(e.startTime),
		Counts:    e.counts,
	}
}
