//go:build rp2040

// Package pio is the RP2040 sampling backend. PIO0 runs the ring sampler
// (SM0), the post-trigger sampler (SM1) and the trigger multiplexer (SM3);
// PIO1 runs up to four watchers. DMA moves samples into memory and performs
// the trigger handoff by rewriting the PIO control registers.
package pio

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"gosump/capture"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var (
	ErrClaimed       = errors.New("pio: state machine already claimed")
	ErrNotReady      = errors.New("pio: sampler not initialized")
	ErrTooManyInputs = errors.New("pio: too many input pins")
)

// PIO register map
const (
	pio0Base = 0x50200000
	pio1Base = 0x50300000

	pioCtrl  = 0x000
	pioTXF0  = 0x010
	pioRXF0  = 0x020
	pioIRQ   = 0x030
	pioIRQ0E = 0x12C // IRQ0_INTE

	pioCtrlClkdivRestartShift = 8
	pioIRQ0ESM0               = 1 << 8 // IRQ flag 0 source
)

// State machine and DMA channel allocation
const (
	smPre  = 0
	smPost = 1
	smMux  = 3

	chRing    dmaChannel = 0
	chPost    dmaChannel = 1
	chHandoff dmaChannel = 2
	chSilence dmaChannel = 3
	chTrigger dmaChannel = 4 // 4..7, one per watcher

	// the ring is 16-bit samples, so the DMA ring spans RingBits+1 address bits
	ringAddrBits = capture.RingBits + 1
	ringBytes    = 1 << ringAddrBits
)

var (
	pio0CtrlReg = (*volatile.Register32)(unsafe.Pointer(uintptr(pio0Base + pioCtrl)))
	pio1CtrlReg = (*volatile.Register32)(unsafe.Pointer(uintptr(pio1Base + pioCtrl)))
	pio0IRQReg  = (*volatile.Register32)(unsafe.Pointer(uintptr(pio0Base + pioIRQ)))
	pio0IRQ0E   = (*volatile.Register32)(unsafe.Pointer(uintptr(pio0Base + pioIRQ0E)))
)

func pioTXF(base uintptr, sm uint8) uintptr { return base + pioTXF0 + 4*uintptr(sm) }
func pioRXF(base uintptr, sm uint8) uintptr { return base + pioRXF0 + 4*uintptr(sm) }

// Sample memory lives outside the heap. The ring storage is twice the ring
// so an aligned window always fits inside it.
var (
	ringStorage [2 * capture.RingSize]uint16
	postBuffer  [capture.PostBufferSize]uint16

	// active receives the DMA and PIO interrupts
	active *Sampler
)

// Sampler implements capture.Hardware on PIO0, PIO1 and DMA channels 0-7
type Sampler struct {
	pinBase  uint8
	pinCount uint8
	irq      capture.Interrupts
	ready    bool

	pre      rp2pio.StateMachine
	post     rp2pio.StateMachine
	mux      rp2pio.StateMachine
	watchSMs [capture.MaxTriggers]rp2pio.StateMachine

	fastOffset  uint8
	fastLen     uint8
	slowOffset  uint8
	slowLen     uint8
	muxOffset   uint8
	muxLen      uint8
	trigOffsets [4]uint8 // indexed by MatchKind
	trigLens    [4]uint8

	ring []uint16

	// words copied by the handoff and trigger channels
	postEnable uint32
	silence    uint32
	index      [capture.MaxTriggers]uint32

	watchers int
}

// NewSampler returns the board's sampler
func NewSampler() *Sampler {
	return &Sampler{
		pre:  rp2pio.PIO0.StateMachine(smPre),
		post: rp2pio.PIO0.StateMachine(smPost),
		mux:  rp2pio.PIO0.StateMachine(smMux),
		watchSMs: [capture.MaxTriggers]rp2pio.StateMachine{
			rp2pio.PIO1.StateMachine(0),
			rp2pio.PIO1.StateMachine(1),
			rp2pio.PIO1.StateMachine(2),
			rp2pio.PIO1.StateMachine(3),
		},
	}
}

// Init claims the state machines, loads every program once and installs
// the interrupt handlers
func (s *Sampler) Init(pinBase, pinCount uint8, irq capture.Interrupts) error {
	if pinCount == 0 || pinCount > 32 {
		return ErrTooManyInputs
	}
	s.pinBase = pinBase
	s.pinCount = pinCount
	s.irq = irq

	for _, sm := range []rp2pio.StateMachine{s.pre, s.post, s.mux, s.watchSMs[0], s.watchSMs[1], s.watchSMs[2], s.watchSMs[3]} {
		if !sm.TryClaim() {
			return ErrClaimed
		}
	}

	// slow first: it is the only program with an absolute jump
	slow := buildSlowProgram(pinCount)
	off, err := rp2pio.PIO0.AddProgram(slow, slowOrigin)
	if err != nil {
		return err
	}
	s.slowOffset, s.slowLen = off, uint8(len(slow))

	fast := buildFastProgram(pinCount)
	if off, err = rp2pio.PIO0.AddProgram(fast, -1); err != nil {
		return err
	}
	s.fastOffset, s.fastLen = off, uint8(len(fast))

	mux := buildMuxProgram()
	if off, err = rp2pio.PIO0.AddProgram(mux, -1); err != nil {
		return err
	}
	s.muxOffset, s.muxLen = off, uint8(len(mux))

	for _, m := range []capture.MatchKind{capture.LevelLow, capture.LevelHigh, capture.EdgeLow, capture.EdgeHigh} {
		prog := buildTriggerProgram(m)
		if off, err = rp2pio.PIO1.AddProgram(prog, -1); err != nil {
			return err
		}
		s.trigOffsets[m], s.trigLens[m] = off, uint8(len(prog))
	}

	s.ring = alignedRing()
	s.postEnable = 1 << smPost
	s.silence = 0

	active = s
	dmaIRQ := interrupt.New(rp.IRQ_DMA_IRQ_0, handleDMAInterrupt)
	dmaIRQ.Enable()
	pioIRQ := interrupt.New(rp.IRQ_PIO0_IRQ_0, handlePIOInterrupt)
	pio0IRQ0E.SetBits(pioIRQ0ESM0)
	pioIRQ.Enable()

	s.ready = true
	return nil
}

// alignedRing finds the ringBytes-aligned window inside ringStorage that the
// DMA write ring wraps within
func alignedRing() []uint16 {
	addr := uintptr(unsafe.Pointer(&ringStorage[0]))
	skip := (ringBytes - addr%ringBytes) % ringBytes
	first := int(skip / 2)
	return ringStorage[first : first+capture.RingSize]
}

func (s *Sampler) Buffers() (ring, post []uint16) {
	return s.ring, postBuffer[:]
}

func (s *Sampler) Arm(plan capture.ClockPlan, postSamples uint32, watchers []capture.Watcher) error {
	if !s.ready {
		return ErrNotReady
	}
	s.Stop()

	whole, frac := plan.DivisorParts()
	offset, length := s.fastOffset, s.fastLen
	if plan.Regime == capture.RegimeSlow {
		offset, length = s.slowOffset, s.slowLen
	}
	s.initCapture(s.pre, offset, length, whole, frac)
	s.initCapture(s.post, offset, length, whole, frac)

	chRing.configure(pioRXF(pio0Base, smPre), ptr16(&s.ring[0]), capture.RingInitialCount, dmaConfig{
		size:      dmaSizeHalf,
		incrWrite: true,
		ringBits:  ringAddrBits,
		ringWrite: true,
		chainTo:   chRing,
		treq:      dreqPIO0RX0 + smPre,
		highPrio:  true,
	}, true)

	chPost.configure(pioRXF(pio0Base, smPost), ptr16(&postBuffer[0]), postSamples, dmaConfig{
		size:      dmaSizeHalf,
		incrWrite: true,
		chainTo:   chPost,
		treq:      dreqPIO0RX0 + smPost,
		highPrio:  true,
	}, true)
	dmaINTS0Reg.Set(1 << chPost)
	dmaINTE0Reg.SetBits(1 << chPost)

	s.watchers = len(watchers)
	if s.watchers == 0 {
		return nil
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetWrap(s.muxOffset, s.muxOffset+s.muxLen-1)
	s.mux.Init(s.muxOffset, cfg)

	// first rewrite: PIO0 runs only the post sampler; chained second
	// rewrite: every watcher stops
	chHandoff.configure(ptr32(&s.postEnable), pio0Base+pioCtrl, 1, dmaConfig{
		size:     dmaSizeWord,
		chainTo:  chSilence,
		treq:     dreqPIO0RX0 + smMux,
		highPrio: true,
	}, true)
	chSilence.configure(ptr32(&s.silence), pio1Base+pioCtrl, 1, dmaConfig{
		size:    dmaSizeWord,
		chainTo: chSilence,
		treq:    dreqPermanent,
	}, false)

	for i, w := range watchers {
		if i == capture.MaxTriggers {
			break
		}
		m := w.Match
		cfg := rp2pio.DefaultStateMachineConfig()
		setInBase(&cfg, machine.Pin(s.pinBase+w.Pin))
		cfg.SetWrap(s.trigOffsets[m], s.trigOffsets[m]+s.trigLens[m]-1)
		cfg.SetClkDivIntFrac(whole, frac)
		s.watchSMs[i].Init(s.trigOffsets[m], cfg)

		s.index[i] = uint32(w.Index)
		ch := chTrigger + dmaChannel(i)
		ch.configure(ptr32(&s.index[i]), pioTXF(pio0Base, smMux), 1, dmaConfig{
			size:    dmaSizeWord,
			chainTo: ch,
			treq:    dreqPIO1RX0 + uint32(i),
		}, true)
	}
	return nil
}

func (s *Sampler) initCapture(sm rp2pio.StateMachine, offset, length uint8, whole uint16, frac uint8) {
	cfg := rp2pio.DefaultStateMachineConfig()
	setInBase(&cfg, machine.Pin(s.pinBase))
	cfg.SetInShift(false, true, uint16(s.pinCount))
	cfg.SetWrap(offset, offset+length-1)
	cfg.SetClkDivIntFrac(whole, frac)
	sm.Init(offset, cfg)
}

// setInBase maps IN pin 0 to base
func setInBase(cfg *rp2pio.StateMachineConfig, base machine.Pin) {
	cfg.PinCtrl = (cfg.PinCtrl &^ uint32(rp.PIO0_SM0_PINCTRL_IN_BASE_Msk)) |
		(uint32(base) << rp.PIO0_SM0_PINCTRL_IN_BASE_Pos)
}

func (s *Sampler) Start() {
	if s.watchers == 0 {
		mask := uint32(1<<smPre | 1<<smPost)
		pio0CtrlReg.Set(mask | mask<<pioCtrlClkdivRestartShift)
		return
	}
	mask := uint32(1<<smPre | 1<<smMux)
	pio0CtrlReg.Set(mask | mask<<pioCtrlClkdivRestartShift)
	watch := uint32(1)<<s.watchers - 1
	pio1CtrlReg.Set(watch | watch<<pioCtrlClkdivRestartShift)
}

func (s *Sampler) Stop() {
	pio0CtrlReg.Set(0)
	pio1CtrlReg.Set(0)

	dmaINTE0Reg.ClearBits(1 << chPost)
	abortChannels(0xFF)
	dmaINTS0Reg.Set(1 << chPost)

	s.pre.ClearFIFOs()
	s.post.ClearFIFOs()
	s.mux.ClearFIFOs()
	for _, sm := range s.watchSMs {
		sm.ClearFIFOs()
	}
	pio0IRQReg.Set(1)
}

func (s *Sampler) RingRemaining() uint32 {
	return chRing.remaining()
}

func handleDMAInterrupt(interrupt.Interrupt) {
	if dmaINTS0Reg.Get()&(1<<chPost) == 0 {
		return
	}
	dmaINTS0Reg.Set(1 << chPost)
	if active != nil && active.irq != nil {
		active.irq.HandleComplete()
	}
}

func handlePIOInterrupt(interrupt.Interrupt) {
	pio0IRQReg.Set(1)
	if active == nil || active.irq == nil {
		return
	}
	var channel uint32
	if !active.mux.IsRxFIFOEmpty() {
		channel = active.mux.RxGet()
	}
	active.irq.HandleTrigger(channel)
}
