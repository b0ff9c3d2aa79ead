// Package analyzer is the firmware main sequence: it reads host commands,
// starts and aborts captures, and streams samples once the engine reports
// a completed capture.
package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"gosump/capture"
	"gosump/core"
	"gosump/protocol"
)

// PollInterval is the pause between main sequence steps in Run
const PollInterval = 10 * time.Microsecond

// Analyzer ties the interpreter, the engine and the encoder together.
// It is also the engine's observer.
type Analyzer struct {
	interp  *protocol.Interpreter
	engine  *capture.Engine
	encoder *protocol.Encoder
	led     core.Indicator

	samplesReady atomic.Bool
	errors       atomic.Uint32

	// latched by the run command; register writes during a capture apply
	// to the next one
	armedTotal uint32
	armedFlags protocol.Flags
}

// Config collects what New needs from the target
type Config struct {
	Port     protocol.Port
	Boot     core.BootConfig
	Hardware capture.Hardware
	Clock    capture.SystemClock
	LED      core.Indicator // optional
	PinBase  uint8
}

// New builds the analyzer and initializes the capture hardware
func New(cfg Config) (*Analyzer, error) {
	a := &Analyzer{led: cfg.LED}
	if a.led == nil {
		a.led = core.NopIndicator{}
	}
	a.interp = protocol.NewInterpreter(cfg.Port, cfg.Boot)
	a.encoder = protocol.NewEncoder(cfg.Port, a.interp)

	engine, err := capture.NewEngine(cfg.Hardware, cfg.Clock, a, cfg.PinBase, uint8(cfg.Boot.Channels))
	if err != nil {
		return nil, err
	}
	a.engine = engine

	core.Debug("RP2040 Logic Analyzer - " + protocol.DeviceVersion)
	core.Debug("Configuration: Override trigger edge: " + core.EnabledString(cfg.Boot.TriggerEdge))
	return a, nil
}

// Engine returns the capture engine
func (a *Analyzer) Engine() *capture.Engine {
	return a.engine
}

// Interpreter returns the host protocol interpreter
func (a *Analyzer) Interpreter() *protocol.Interpreter {
	return a.interp
}

// Errors returns how many main sequence steps failed
func (a *Analyzer) Errors() uint32 {
	return a.errors.Load()
}

// OnComplete runs in interrupt context
func (a *Analyzer) OnComplete(r capture.Result) {
	a.samplesReady.Store(true)
	core.Debug("Capture complete. Samples count: " + core.Utoa(r.Samples) +
		" Pre trigger count: " + core.Utoa(r.PreTriggerCount))
	if missing := r.MissingPreTrigger(); missing > 0 {
		core.Debug("Warning. Not enough pre trigger samples. Missing samples (" +
			core.Utoa(missing) + ") will be sent as 0x0000 samples")
	}
}

func (a *Analyzer) OnAbort() {
	a.samplesReady.Store(false)
}

// Poll handles at most one host command and then streams samples if a
// capture has completed
func (a *Analyzer) Poll() error {
	switch a.interp.Read() {
	case protocol.CommandRun:
		a.led.Set(true)
		cfg := a.interp.Config()
		if dropped := a.interp.Dropped(); dropped > 0 {
			core.Debug("Triggers dropped: " + core.Itoa(dropped))
		}
		if err := a.engine.Start(&cfg); err != nil {
			a.led.Set(false)
			return err
		}
		a.armedTotal = cfg.TotalSamples
		a.armedFlags = a.interp.Flags()
	case protocol.CommandReset:
		a.reset()
	}

	if !a.samplesReady.CompareAndSwap(true, false) {
		return nil
	}
	err := a.encoder.Send(a.engine, a.armedTotal, a.armedFlags)
	a.led.Set(false)
	if n := core.DebugDropped(); n > 0 {
		core.DebugBlock("Debug lines dropped: " + core.Utoa(n))
	}
	if errors.Is(err, protocol.ErrCancelled) {
		a.reset()
		return nil
	}
	return err
}

func (a *Analyzer) reset() {
	if a.engine.Busy() {
		a.engine.Abort()
	}
	a.interp.Reset()
	a.led.Set(false)
}

// Run polls until ctx is done. Failed steps are logged and counted; the
// loop never stops on its own.
func (a *Analyzer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := a.Poll(); err != nil {
			a.errors.Add(1)
			core.Debug("Poll failed: " + err.Error())
		}
		time.Sleep(PollInterval)
	}
}

// BootBlink lights the indicator once for d
func BootBlink(led core.Indicator, d time.Duration) {
	led.Set(true)
	time.Sleep(d)
	led.Set(false)
}
