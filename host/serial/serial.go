// Package serial opens the byte link the emulator serves SUMP on
package serial

import (
	"io"
)

// Port is a serial port. Implementations exist for native serial devices
// (github.com/tarm/serial) and for tests.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "/dev/pts/3", "COM3")
	Device string

	// Baud rate. SUMP clients default to 115200; a pty ignores it.
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud is the rate SUMP clients open the port at
const DefaultBaud = 115200

// DefaultConfig returns the configuration a SUMP client expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 10, // keeps the reader responsive to shutdown
	}
}
