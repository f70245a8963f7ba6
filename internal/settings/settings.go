// Package settings holds the user's heating preferences behind a
// thread-safe store. Every mutation persists to the settings file and
// notifies the run loop, which treats it as a fresh decision epoch.
package settings

import (
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/seat-heater/internal/logic"
)

// Limits on user-settable values.
const (
	MaxAutoOffMinutes = 20
	MinThresholdC     = -40
	MaxThresholdC     = 60
)

// Defaults returns the factory settings.
func Defaults() logic.Settings {
	return logic.Settings{
		Mode:       logic.ModeOff,
		Adaptive:   false,
		FixedLevel: 2,
		CheckOnce:  false,
		AutoOff:    0,
		Source:     logic.SourceCabin,
		ThresholdC: 15,
	}
}

// Store is the settings store. Reads snapshot the whole struct at once
// so a single evaluation never mixes fields from different moments.
type Store struct {
	mu      sync.RWMutex
	s       logic.Settings
	path    string // empty = in-memory only
	changed chan struct{}

	// onSaveError receives persistence failures if non-nil; mutations
	// still apply in memory when saving fails.
	onSaveError func(error)
}

// NewStore creates an in-memory store with the given settings.
func NewStore(s logic.Settings) *Store {
	return &Store{
		s:       s,
		changed: make(chan struct{}, 1),
	}
}

// Snapshot returns an atomic copy of the current settings.
func (st *Store) Snapshot() logic.Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// Changed delivers one (coalesced) signal per settings mutation. The run
// loop resets the decision engine's latch and timer on each signal.
func (st *Store) Changed() <-chan struct{} {
	return st.changed
}

func (st *Store) notify() {
	select {
	case st.changed <- struct{}{}:
	default:
	}
}

// mutate applies fn under the lock, persists, and notifies.
func (st *Store) mutate(fn func(*logic.Settings)) {
	st.mu.Lock()
	fn(&st.s)
	snap := st.s
	st.mu.Unlock()

	if st.path != "" {
		if err := save(st.path, snap); err != nil && st.onSaveError != nil {
			st.onSaveError(err)
		}
	}
	st.notify()
}

// SetMode selects which seats heat automatically.
func (st *Store) SetMode(m logic.Mode) error {
	switch m {
	case logic.ModeOff, logic.ModeDriver, logic.ModePassenger, logic.ModeBoth:
	default:
		return fmt.Errorf("settings: invalid mode %q", m)
	}
	st.mutate(func(s *logic.Settings) { s.Mode = m })
	return nil
}

// SetAdaptive toggles table-driven level selection.
func (st *Store) SetAdaptive(on bool) {
	st.mutate(func(s *logic.Settings) { s.Adaptive = on })
}

// SetFixedLevel sets the heater level used when adaptive is off.
func (st *Store) SetFixedLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("settings: level %d out of range [0,3]", level)
	}
	st.mutate(func(s *logic.Settings) { s.FixedLevel = level })
	return nil
}

// SetCheckOnce toggles the decide-at-startup latch.
func (st *Store) SetCheckOnce(on bool) {
	st.mutate(func(s *logic.Settings) { s.CheckOnce = on })
}

// SetAutoOffMinutes sets the auto-off timer; 0 disables it.
func (st *Store) SetAutoOffMinutes(minutes int) error {
	if minutes < 0 || minutes > MaxAutoOffMinutes {
		return fmt.Errorf("settings: auto-off %d out of range [0,%d]", minutes, MaxAutoOffMinutes)
	}
	st.mutate(func(s *logic.Settings) { s.AutoOff = time.Duration(minutes) * time.Minute })
	return nil
}

// SetSource selects which temperature sensor drives decisions.
func (st *Store) SetSource(src logic.TemperatureSource) error {
	switch src {
	case logic.SourceCabin, logic.SourceAmbient:
	default:
		return fmt.Errorf("settings: invalid temperature source %q", src)
	}
	st.mutate(func(s *logic.Settings) { s.Source = src })
	return nil
}

// SetThreshold sets the fixed-mode activation threshold in °C.
func (st *Store) SetThreshold(celsius int) error {
	if celsius < MinThresholdC || celsius > MaxThresholdC {
		return fmt.Errorf("settings: threshold %d°C out of range [%d,%d]", celsius, MinThresholdC, MaxThresholdC)
	}
	st.mutate(func(s *logic.Settings) { s.ThresholdC = celsius })
	return nil
}
