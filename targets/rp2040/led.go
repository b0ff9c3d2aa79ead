//go:build rp2040 && !ws2812

package main

import (
	"machine"

	"gosump/core"
)

// newStatusLED drives the on-board LED through the GPIO driver
func newStatusLED(gpio core.GPIODriver) (core.Indicator, error) {
	return core.NewPinIndicator(gpio, core.GPIOPin(machine.LED))
}
