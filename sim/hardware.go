// Package sim is a pure-Go model of the sampling hardware: a continuous
// ring sampler, a post-trigger sampler, four watchers, the multiplexer and
// the chained handoff between them. It implements capture.Hardware so the
// engine and everything above it runs unchanged on the host.
package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"gosump/capture"
)

var ErrNotInitialized = errors.New("sim: hardware not initialized")

// Signal yields the input pin levels for one sample period. Bit i is
// channel i relative to the pin base.
type Signal func(tick uint64) uint16

type watcher struct {
	capture.Watcher
	seenOpposite bool
}

// Hardware simulates one sample per Step. Interrupt entry points are called
// from whichever goroutine steps it, never with the internal lock held.
type Hardware struct {
	mu sync.Mutex

	signal Signal
	tick   uint64

	pinBase  uint8
	pinCount uint8
	irq      capture.Interrupts
	ready    bool

	ring []uint16
	post []uint16

	plan          capture.ClockPlan
	ringRemaining uint32
	postTarget    uint32
	postWritten   uint32
	watchers      []watcher

	preOn   bool
	postOn  bool
	muxOn   bool
	watchOn bool
}

// NewHardware returns simulated hardware sampling signal.
// A nil signal reads all pins low.
func NewHardware(signal Signal) *Hardware {
	if signal == nil {
		signal = func(uint64) uint16 { return 0 }
	}
	return &Hardware{
		signal: signal,
		ring:   make([]uint16, capture.RingSize),
		post:   make([]uint16, capture.PostBufferSize),
	}
}

func (h *Hardware) Init(pinBase, pinCount uint8, irq capture.Interrupts) error {
	if irq == nil {
		return ErrNotInitialized
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pinBase = pinBase
	h.pinCount = pinCount
	h.irq = irq
	h.ready = true
	return nil
}

func (h *Hardware) Buffers() (ring, post []uint16) {
	return h.ring, h.post
}

func (h *Hardware) Arm(plan capture.ClockPlan, postSamples uint32, watchers []capture.Watcher) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ready {
		return ErrNotInitialized
	}
	if postSamples > uint32(len(h.post)) {
		postSamples = uint32(len(h.post))
	}
	h.stopLocked()
	h.plan = plan
	h.ringRemaining = capture.RingInitialCount
	h.postTarget = postSamples
	h.postWritten = 0
	h.watchers = h.watchers[:0]
	for _, w := range watchers {
		h.watchers = append(h.watchers, watcher{Watcher: w})
	}
	return nil
}

func (h *Hardware) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.preOn = true
	if len(h.watchers) == 0 {
		h.postOn = true
		return
	}
	h.muxOn = true
	h.watchOn = true
}

func (h *Hardware) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

func (h *Hardware) stopLocked() {
	h.preOn = false
	h.postOn = false
	h.muxOn = false
	h.watchOn = false
}

func (h *Hardware) RingRemaining() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ringRemaining
}

// Running reports whether any sampling unit is enabled
func (h *Hardware) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.preOn || h.postOn || h.watchOn
}

// Plan returns the clock plan of the last Arm
func (h *Hardware) Plan() capture.ClockPlan {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.plan
}

// Tick returns the number of sample periods simulated so far
func (h *Hardware) Tick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tick
}

type event uint8

const (
	eventNone event = iota
	eventTrigger
	eventComplete
)

// Step simulates n sample periods and delivers the interrupts they raise
func (h *Hardware) Step(n int) {
	for i := 0; i < n; i++ {
		ev, channel := h.stepOne()
		switch ev {
		case eventTrigger:
			h.irq.HandleTrigger(channel)
		case eventComplete:
			h.irq.HandleComplete()
		}
	}
}

func (h *Hardware) stepOne() (event, uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v := h.signal(h.tick)
	if h.pinCount < 16 {
		v &= uint16(1)<<h.pinCount - 1
	}
	h.tick++

	if h.preOn {
		written := capture.WrittenSinceArm(h.ringRemaining)
		h.ring[written&capture.RingMask] = v
		h.ringRemaining--
	}

	if h.postOn && h.postWritten < h.postTarget {
		h.post[h.postWritten] = v
		h.postWritten++
		if h.postWritten == h.postTarget {
			h.postOn = false
			return eventComplete, 0
		}
	}

	if h.watchOn {
		for i := range h.watchers {
			w := &h.watchers[i]
			level := v&(1<<w.Pin) != 0
			if w.Match.Fires(w.seenOpposite, level) {
				if h.muxOn {
					return h.handoffLocked(w.Index)
				}
				continue
			}
			if level != w.Match.Level() {
				w.seenOpposite = true
			}
		}
	}
	return eventNone, 0
}

// handoffLocked models the two chained descriptor rewrites: the first swaps
// the ring sampler for the post sampler, the second silences the
// multiplexer and every watcher.
func (h *Hardware) handoffLocked(index uint8) (event, uint32) {
	h.preOn = false
	h.postOn = true
	h.muxOn = false
	h.watchOn = false
	return eventTrigger, uint32(index)
}

// Run steps the hardware in real time at the armed sample rate until ctx
// is done. Steps are batched per interval and bounded to maxBatch samples.
func (h *Hardware) Run(ctx context.Context, interval time.Duration, maxBatch int) error {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var carry float64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if !h.Running() {
			carry = 0
			continue
		}
		carry += float64(h.Plan().Rate) * interval.Seconds()
		n := int(carry)
		carry -= float64(n)
		if n < 1 {
			continue
		}
		if maxBatch > 0 && n > maxBatch {
			n = maxBatch
		}
		h.Step(n)
	}
}
