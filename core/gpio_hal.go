package core

import "errors"

// ErrInvalidPin is returned for a pin number the board does not have
var ErrInvalidPin = errors.New("gpio: invalid pin")

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as a digital input with pull-down resistor
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// ReadPin reads the current pin state
	ReadPin(pin GPIOPin) bool
}

// Indicator is a single on/off status light
type Indicator interface {
	Set(on bool)
}

// NopIndicator is used when a board has no status light
type NopIndicator struct{}

func (NopIndicator) Set(bool) {}

// PinIndicator drives a status light wired to a plain GPIO
type PinIndicator struct {
	Driver GPIODriver
	Pin    GPIOPin
}

// NewPinIndicator configures pin as an output and returns it switched off
func NewPinIndicator(d GPIODriver, pin GPIOPin) (*PinIndicator, error) {
	if err := d.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	led := &PinIndicator{Driver: d, Pin: pin}
	led.Set(false)
	return led, nil
}

func (l *PinIndicator) Set(on bool) {
	_ = l.Driver.SetPin(l.Pin, on)
}
