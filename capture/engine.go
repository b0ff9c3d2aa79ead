package capture

import (
	"sync/atomic"

	"gosump/core"
)

// Engine drives one capture at a time over Hardware.
//
// Start, Abort and the accessors run on the main sequence; HandleComplete
// and HandleTrigger run in interrupt context. The state word is the only
// thing both sides write, and every transition out of Armed or Capturing
// is a compare-and-swap so an abort and a completion cannot both win.
type Engine struct {
	hw       Hardware
	clock    SystemClock
	observer Observer

	ring []uint16
	post []uint16

	state    atomic.Uint32
	aborting atomic.Bool

	requestedPre uint32
	postSamples  uint32
	window       Window
}

// NewEngine initializes hw for pinCount inputs starting at pinBase.
// observer may be nil.
func NewEngine(hw Hardware, clock SystemClock, observer Observer, pinBase, pinCount uint8) (*Engine, error) {
	if hw == nil || clock == nil {
		return nil, ErrNoEngine
	}
	e := &Engine{
		hw:       hw,
		clock:    clock,
		observer: observer,
	}
	if err := hw.Init(pinBase, pinCount, e); err != nil {
		return nil, err
	}
	e.ring, e.post = hw.Buffers()
	return e, nil
}

// State returns the current acquisition state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Busy reports whether a capture is armed, running, or still delivering
// its completion callback
func (e *Engine) Busy() bool {
	switch e.State() {
	case Armed, Capturing, Complete:
		return true
	}
	return false
}

// Start arms the hardware for cfg and begins sampling.
//
// The pre-trigger count is clamped to the ring capacity and to one less
// than the total, and the post-trigger count to the post buffer capacity.
func (e *Engine) Start(cfg *Config) error {
	if !e.state.CompareAndSwap(uint32(Idle), uint32(Armed)) {
		return ErrBusy
	}
	e.aborting.Store(false)

	pre := cfg.PreTriggerSamples
	if pre > RingSize {
		pre = RingSize
	}
	// The post feed needs at least one word to ever complete
	if pre >= cfg.TotalSamples {
		pre = 0
		if cfg.TotalSamples > 0 {
			pre = cfg.TotalSamples - 1
		}
	}
	post := cfg.TotalSamples - pre
	if post > PostBufferSize {
		post = PostBufferSize
	}
	if post == 0 {
		post = 1
	}
	e.requestedPre = pre
	e.postSamples = post
	e.window = Window{}

	plan := PlanClock(cfg.Rate)
	if _, err := ApplyClock(e.clock, plan.SysClockHz); err != nil {
		e.state.Store(uint32(Idle))
		return err
	}
	if core.IsDebugEnabled() {
		core.DebugBlock("Sys Clk: " + core.Utoa(e.clock.Frequency()) +
			" Clk div (" + plan.Regime.String() + "): " + core.Fixed(plan.Divisor, 2))
	}

	watchers := BuildCascade(cfg.Triggers)
	if err := e.hw.Arm(plan, post, watchers); err != nil {
		e.hw.Stop()
		e.state.Store(uint32(Idle))
		return err
	}

	if core.IsDebugEnabled() {
		core.DebugBlock("Capture start. Samples: " + core.Utoa(cfg.TotalSamples) +
			" Rate: " + core.Utoa(cfg.Rate) +
			" Pre trigger samples: " + core.Utoa(pre) +
			" Triggers: " + core.Itoa(len(watchers)))
	}

	// The completion interrupt can fire as soon as the units are enabled
	e.state.Store(uint32(Capturing))
	e.hw.Start()
	return nil
}

// Abort stops a capture in progress without delivering its data.
// It does nothing when the engine is idle.
func (e *Engine) Abort() {
	st := disableInterrupts()
	cur := e.State()
	if cur != Armed && cur != Capturing {
		restoreInterrupts(st)
		return
	}
	if !e.state.CompareAndSwap(uint32(cur), uint32(Aborted)) {
		restoreInterrupts(st)
		return
	}
	e.aborting.Store(true)
	e.hw.Stop()
	restoreInterrupts(st)

	e.restoreIdleClock()
	e.state.Store(uint32(Idle))
	if e.observer != nil {
		e.observer.OnAbort()
	}
	core.Debug("Capture aborted")
}

// HandleComplete is the post-trigger feed's completion interrupt
func (e *Engine) HandleComplete() {
	if e.aborting.Swap(false) {
		return
	}
	if !e.state.CompareAndSwap(uint32(Capturing), uint32(Complete)) {
		return
	}

	remaining := e.hw.RingRemaining()
	e.hw.Stop()
	e.window = RingWindow(remaining, e.requestedPre)
	e.restoreIdleClock()

	if e.observer != nil {
		e.observer.OnComplete(Result{
			Samples:             e.SamplesCount(),
			PreTriggerCount:     e.window.Count,
			RequestedPreTrigger: e.requestedPre,
		})
	}
	e.state.Store(uint32(Idle))
}

// HandleTrigger is the multiplexer's interrupt. It only logs.
func (e *Engine) HandleTrigger(channel uint32) {
	core.Debug("Triggered channel " + core.Utoa(channel))
}

// SamplesCount returns the number of samples delivered by the last capture
func (e *Engine) SamplesCount() uint32 {
	return e.window.Count + e.postSamples
}

// Sample returns sample i of the last completed capture in chronological
// order: the pre-trigger window first, then the post-trigger buffer.
// Indices outside [0, SamplesCount) yield 0.
func (e *Engine) Sample(i int) uint16 {
	if i < 0 || uint32(i) >= e.SamplesCount() {
		return 0
	}
	idx := uint32(i)
	if idx < e.window.Count {
		return e.ring[e.window.Slot(idx)]
	}
	return e.post[idx-e.window.Count]
}

func (e *Engine) restoreIdleClock() {
	if _, err := ApplyClock(e.clock, SlowClockHz); err != nil {
		core.Debug("Clock restore failed: " + err.Error())
	}
}
