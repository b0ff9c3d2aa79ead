//go:build rp2040

package main

import (
	"machine"
	"time"

	"gosump/analyzer"
	"gosump/capture"
	"gosump/core"
	"gosump/protocol"
	"gosump/targets/pio"
)

const (
	captureBase = 0 // GPIO0 is channel 0
	bootBlink   = 500 * time.Millisecond
)

var (
	inputBuffer *protocol.FifoBuffer

	// Debug counters
	loopErrors uint32
	linkErrors uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()

	gpio := NewRPGPIODriver()
	boot, err := core.ReadBootConfig(gpio)
	if err != nil {
		boot = core.DefaultBootConfig()
	}
	if err := core.ConfigureCaptureInputs(gpio, captureBase, boot.Channels); err != nil {
		halt()
	}

	// idle at the slow capture clock
	clock := NewPLLClock()
	_ = clock.SetFrequency(capture.SlowClockHz)

	if boot.Debug {
		if err := InitDebugUART(clock); err == nil {
			core.SetDebugEnabled(true)
			core.InitAsyncDebug()
		}
	}

	led, err := newStatusLED(gpio)
	if err != nil {
		led = core.NopIndicator{}
	}
	analyzer.BootBlink(led, bootBlink)

	inputBuffer = protocol.NewFifoBuffer(256)
	go usbReaderLoop(inputBuffer)

	a, err := analyzer.New(analyzer.Config{
		Port:     protocol.NewFifoPort(inputBuffer, machine.Serial),
		Boot:     boot,
		Hardware: pio.NewSampler(),
		Clock:    clock,
		LED:      led,
		PinBase:  captureBase,
	})
	if err != nil {
		core.DebugBlock("Init failed: " + err.Error())
		halt()
	}

	// Main loop
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopErrors++
					inputBuffer.Reset()
				}
			}()

			if err := a.Poll(); err != nil {
				loopErrors++
				core.Debug("Poll failed: " + err.Error())
			}
		}()

		// Yield to the USB reader
		time.Sleep(analyzer.PollInterval)
	}
}

// halt blinks the LED pin forever after a fatal init error
func halt() {
	pin := machine.LED
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		pin.Set(!pin.Get())
		time.Sleep(100 * time.Millisecond)
	}
}
