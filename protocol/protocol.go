// Package protocol implements the SUMP/OLS host protocol: the command
// interpreter with its stage registers, the translation of stages into
// capture triggers, and the raw and run-length sample encoders.
package protocol

// Device identity reported in the metadata response
const (
	DeviceName    = "RP2040"
	DeviceVersion = "v0.1"

	// ClockRate is the base clock the host computes divisors against
	ClockRate       = 100000000
	ProtocolVersion = 2

	MaxTotalSamples = 200000    // bytes
	MaxSampleRate   = 200000000 // Hz

	// DeviceID is the reply to the ID command
	DeviceID = "1ALS"

	StageCount = 4
)
