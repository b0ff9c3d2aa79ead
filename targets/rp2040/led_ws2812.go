//go:build rp2040 && ws2812

package main

import (
	"image/color"
	"machine"

	"gosump/core"

	"tinygo.org/x/drivers/ws2812"
)

var (
	ledOn  = color.RGBA{R: 0, G: 0x20, B: 0, A: 0xff}
	ledOff = color.RGBA{}
)

// pixelLED is a single addressable LED used as the status light
type pixelLED struct {
	dev ws2812.Device
	buf [1]color.RGBA
}

// newStatusLED drives the board's WS2812. On boards that wire it to GPIO16
// the debug UART TX pin is shared and logging must stay off.
func newStatusLED(core.GPIODriver) (core.Indicator, error) {
	pin := machine.WS2812
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led := &pixelLED{dev: ws2812.New(pin)}
	led.Set(false)
	return led, nil
}

func (l *pixelLED) Set(on bool) {
	l.buf[0] = ledOff
	if on {
		l.buf[0] = ledOn
	}
	_ = l.dev.WriteColors(l.buf[:])
}
