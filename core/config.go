package core

// Boot option pins. Grounding a pin at boot enables its option.
const (
	PinDebugEnable   GPIOPin = 18 // debug output on UART0 (GPIO16, 115200 bps)
	PinTriggerStages GPIOPin = 19 // stage based triggers instead of edge override
)

// ChannelCount is the number of sampled input pins, starting at GPIO0
const ChannelCount = 16

// BootConfig is the run-time configuration selected once at boot
type BootConfig struct {
	Channels uint32

	// TriggerEdge turns every parallel stage trigger into an edge trigger.
	// Enabled unless PinTriggerStages is grounded.
	TriggerEdge bool

	// Debug enables diagnostic logging
	Debug bool
}

// DefaultBootConfig returns the configuration used when no option pin is grounded
func DefaultBootConfig() BootConfig {
	return BootConfig{
		Channels:    ChannelCount,
		TriggerEdge: true,
		Debug:       false,
	}
}

// ReadBootConfig configures the option pins with pull-ups and reads them
func ReadBootConfig(d GPIODriver) (BootConfig, error) {
	cfg := DefaultBootConfig()

	if err := d.ConfigureInputPullUp(PinTriggerStages); err != nil {
		return cfg, err
	}
	if err := d.ConfigureInputPullUp(PinDebugEnable); err != nil {
		return cfg, err
	}

	if !d.ReadPin(PinTriggerStages) {
		cfg.TriggerEdge = false
	}
	if !d.ReadPin(PinDebugEnable) {
		cfg.Debug = true
	}
	return cfg, nil
}

// ConfigureCaptureInputs sets the sampled pins as inputs with pull-downs
func ConfigureCaptureInputs(d GPIODriver, base GPIOPin, count uint32) error {
	for i := uint32(0); i < count; i++ {
		if err := d.ConfigureInputPullDown(base + GPIOPin(i)); err != nil {
			return err
		}
	}
	return nil
}
