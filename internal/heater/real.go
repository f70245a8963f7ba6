//go:build linux

package heater

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOController drives heater switch boards through the Linux GPIO
// character device. Each zone's level [0,3] is encoded on two lines
// (bit 0, bit 1).
//
// The chip is opened lazily and reopened after any hardware error, so a
// controller constructed while the GPIO expander is absent self-heals
// once it appears. Our callers treat every new decision event as the
// retry; there is no backoff here.
type GPIOController struct {
	mu       sync.Mutex
	chipName string
	offsets  map[int][2]int // zone id -> (bit0, bit1) line offsets
	chip     *gpiocdev.Chip
	lines    map[int]*gpiocdev.Lines
}

// NewGPIOController creates a controller for the given zone wiring.
// It does not touch hardware yet; the first Write or Read does.
func NewGPIOController(chipName string, offsets map[int][2]int) *GPIOController {
	return &GPIOController{
		chipName: chipName,
		offsets:  offsets,
	}
}

// ensureOpen opens the chip and requests all zone lines. Caller holds mu.
func (c *GPIOController) ensureOpen() error {
	if c.chip != nil {
		return nil
	}

	chip, err := gpiocdev.NewChip(c.chipName)
	if err != nil {
		return fmt.Errorf("open gpio chip %s: %w", c.chipName, ErrUnavailable)
	}

	lines := make(map[int]*gpiocdev.Lines, len(c.offsets))
	for zone, off := range c.offsets {
		// Open-drain with pull-ups: the console rotary switch drives the
		// same lines, and reads return the wire level rather than our
		// driver state. Initially low, so a fresh request must not
		// invent a heater level.
		req, err := chip.RequestLines([]int{off[0], off[1]},
			gpiocdev.AsOutput(0, 0),
			gpiocdev.AsOpenDrain,
			gpiocdev.WithPullUp)
		if err != nil {
			for _, l := range lines {
				l.Close()
			}
			chip.Close()
			return fmt.Errorf("request zone %d lines %v: %w", zone, off, ErrUnavailable)
		}
		lines[zone] = req
	}

	c.chip = chip
	c.lines = lines
	return nil
}

// drop releases everything so the next call reopens. Caller holds mu.
func (c *GPIOController) drop() {
	for _, l := range c.lines {
		l.Close()
	}
	c.lines = nil
	if c.chip != nil {
		c.chip.Close()
		c.chip = nil
	}
}

// Write sets the heater level for a zone.
func (c *GPIOController) Write(zone, level int) error {
	if level < 0 || level > MaxLevel {
		return fmt.Errorf("heater: level %d out of range [0,%d]", level, MaxLevel)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureOpen(); err != nil {
		return err
	}
	req, ok := c.lines[zone]
	if !ok {
		return fmt.Errorf("heater: unknown zone %d", zone)
	}

	if err := req.SetValues([]int{level & 1, (level >> 1) & 1}); err != nil {
		c.drop()
		return fmt.Errorf("write zone %d level %d: %w", zone, level, ErrUnavailable)
	}
	return nil
}

// Read returns the level currently selected on the lines for a zone.
// The rotary switch shares the selector lines, so this sees manual
// changes made at the console.
func (c *GPIOController) Read(zone int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureOpen(); err != nil {
		return 0, err
	}
	req, ok := c.lines[zone]
	if !ok {
		return 0, fmt.Errorf("heater: unknown zone %d", zone)
	}

	vals := make([]int, 2)
	if err := req.Values(vals); err != nil {
		c.drop()
		return 0, fmt.Errorf("read zone %d: %w", zone, ErrUnavailable)
	}
	return vals[0] | vals[1]<<1, nil
}

// Close releases GPIO resources. Levels are left as-is: the switch board
// latches the last selection, so shutdown must not zero the heaters.
func (c *GPIOController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
	return nil
}
