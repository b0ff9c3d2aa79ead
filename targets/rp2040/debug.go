//go:build rp2040

package main

import (
	"machine"

	"gosump/core"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

const debugBaud = 115200

var debugUART = uartx.UART0

// InitDebugUART configures UART0 on GPIO16 (TX) and GPIO17 (RX) and installs
// it as the debug writer
func InitDebugUART(clock *PLLClock) error {
	err := debugUART.Configure(uartx.UARTConfig{
		BaudRate: debugBaudFor(clock.Frequency()),
		TX:       machine.GPIO16,
		RX:       machine.GPIO17,
	})
	if err != nil {
		return err
	}

	// Write returns once the TX FIFO has drained, so no separate flush
	core.SetDebugWriter(func(s string) {
		_, _ = debugUART.Write([]byte(s))
		_, _ = debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugReinit(func() {
		debugUART.SetBaudRate(debugBaudFor(clock.Frequency()))
	})
	return nil
}

// debugBaudFor returns the rate to program for 115200 bps on the wire.
// clk_peri follows clk_sys, but uartx computes its divisor from
// machine.CPUFrequency, which stays at the boot clock.
func debugBaudFor(sysHz uint32) uint32 {
	if sysHz == 0 {
		return debugBaud
	}
	return uint32(uint64(debugBaud) * uint64(machine.CPUFrequency()) / uint64(sysHz))
}
