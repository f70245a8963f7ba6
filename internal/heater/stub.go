//go:build !linux

package heater

import "errors"

// GPIOController is not available on non-Linux platforms.
type GPIOController struct{}

// NewGPIOController returns a controller whose every operation fails.
func NewGPIOController(chipName string, offsets map[int][2]int) *GPIOController {
	return &GPIOController{}
}

// Write is not implemented on non-Linux platforms.
func (c *GPIOController) Write(zone, level int) error {
	return errors.New("heater: gpio not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (c *GPIOController) Read(zone int) (int, error) {
	return 0, errors.New("heater: gpio not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *GPIOController) Close() error {
	return nil
}
