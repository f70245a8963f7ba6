package heater

import "fmt"

// WriteOp records one Write call for test assertions.
type WriteOp struct {
	Zone  int
	Level int
}

// FakeController is an in-memory test double. It remembers the last
// written level per zone and can inject per-zone failures or total
// unavailability.
type FakeController struct {
	// levels holds the current hardware level per zone.
	levels map[int]int

	// Writes journals every successful Write in order.
	Writes []WriteOp

	// WriteErr, if set for a zone, is returned by Write for that zone.
	WriteErr map[int]error

	// ReadErr, if set for a zone, is returned by Read for that zone.
	ReadErr map[int]error

	// Unavailable makes every operation fail with ErrUnavailable,
	// simulating a missing vehicle control interface.
	Unavailable bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeController creates a FakeController with all zones at level 0.
func NewFakeController(zones ...int) *FakeController {
	levels := make(map[int]int, len(zones))
	for _, z := range zones {
		levels[z] = 0
	}
	return &FakeController{
		levels:   levels,
		WriteErr: make(map[int]error),
		ReadErr:  make(map[int]error),
	}
}

// Write records the level for the zone.
func (f *FakeController) Write(zone, level int) error {
	if f.Unavailable {
		return ErrUnavailable
	}
	if err := f.WriteErr[zone]; err != nil {
		return err
	}
	if _, ok := f.levels[zone]; !ok {
		return fmt.Errorf("heater: unknown zone %d", zone)
	}
	f.levels[zone] = level
	f.Writes = append(f.Writes, WriteOp{Zone: zone, Level: level})
	return nil
}

// Read returns the current level for the zone.
func (f *FakeController) Read(zone int) (int, error) {
	if f.Unavailable {
		return 0, ErrUnavailable
	}
	if err := f.ReadErr[zone]; err != nil {
		return 0, err
	}
	level, ok := f.levels[zone]
	if !ok {
		return 0, fmt.Errorf("heater: unknown zone %d", zone)
	}
	return level, nil
}

// Close marks the controller as closed.
func (f *FakeController) Close() error {
	f.Closed = true
	return nil
}

// SetLevel changes a zone's hardware level behind the daemon's back,
// simulating the console rotary switch.
func (f *FakeController) SetLevel(zone, level int) {
	f.levels[zone] = level
}

// Level returns the current hardware level for a zone.
func (f *FakeController) Level(zone int) int {
	return f.levels[zone]
}

// Reset clears the journal and error injection, keeping zone levels.
func (f *FakeController) Reset() {
	f.Writes = nil
	f.WriteErr = make(map[int]error)
	f.ReadErr = make(map[int]error)
	f.Unavailable = false
	f.Closed = false
}
