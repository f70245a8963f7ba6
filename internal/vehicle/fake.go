package vehicle

import (
	"time"

	"github.com/sweeney/seat-heater/internal/logic"
)

// FakeSource delivers scripted vehicle events for tests.
type FakeSource struct {
	events chan Event

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSource creates a FakeSource with room for buffered pushes.
func NewFakeSource() *FakeSource {
	return &FakeSource{events: make(chan Event, 64)}
}

// PushIgnition delivers an ignition-state change.
func (f *FakeSource) PushIgnition(state logic.IgnitionState, at time.Time) {
	f.events <- Event{Time: at, Ignition: &state}
}

// PushClimate delivers a temperature snapshot.
func (f *FakeSource) PushClimate(sample logic.TemperatureSample, at time.Time) {
	f.events <- Event{Time: at, Climate: &sample}
}

// Events returns the event channel.
func (f *FakeSource) Events() <-chan Event {
	return f.events
}

// Close closes the event channel.
func (f *FakeSource) Close() error {
	if !f.Closed {
		f.Closed = true
		close(f.events)
	}
	return nil
}
