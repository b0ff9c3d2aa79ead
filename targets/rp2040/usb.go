//go:build rp2040

package main

import (
	"machine"
	"time"

	"gosump/protocol"
)

// InitUSB initializes USB serial communication.
// On RP2040 machine.Serial is the USB CDC-ACM device set up by TinyGo.
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// USBAvailable returns the number of bytes available to read from USB
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte from USB
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// usbReaderLoop moves received bytes into fifo for the command port
func usbReaderLoop(fifo *protocol.FifoBuffer) {
	// Recover from panics to prevent a firmware crash
	defer func() {
		if r := recover(); r != nil {
			linkErrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop(fifo)
		}
	}()

	for {
		for USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				linkErrors++
				break
			}
			// Buffer full: the host is sending faster than commands are parsed
			for fifo.Write([]byte{data}) == 0 {
				time.Sleep(time.Millisecond)
			}
		}
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
}
