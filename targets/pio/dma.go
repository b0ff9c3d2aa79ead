//go:build rp2040

package pio

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 DMA memory map
const (
	dmaBase        = 0x50000000
	dmaChStride    = 0x40
	dmaReadAddr    = 0x00
	dmaWriteAddr   = 0x04
	dmaTransCount  = 0x08
	dmaCtrlTrig    = 0x0C
	dmaAl1Ctrl     = 0x10 // CTRL alias without trigger
	dmaINTE0       = dmaBase + 0x404
	dmaINTS0       = dmaBase + 0x40C
	dmaChanAbort   = dmaBase + 0x444
	dmaChannelMask = 0xFFF
)

// DMA CTRL fields
const (
	dmaCtrlEN         = 1 << 0
	dmaCtrlHighPrio   = 1 << 1
	dmaCtrlSizeShift  = 2
	dmaCtrlIncrRead   = 1 << 4
	dmaCtrlIncrWrite  = 1 << 5
	dmaCtrlRingShift  = 6
	dmaCtrlRingWrite  = 1 << 10
	dmaCtrlChainShift = 11
	dmaCtrlTreqShift  = 15
	dmaCtrlBusy       = 1 << 24

	dmaSizeHalf = 1
	dmaSizeWord = 2

	dreqPIO0TX0   = 0
	dreqPIO0RX0   = 4
	dreqPIO1TX0   = 8
	dreqPIO1RX0   = 12
	dreqPermanent = 0x3F
)

var (
	dmaINTE0Reg     = (*volatile.Register32)(unsafe.Pointer(uintptr(dmaINTE0)))
	dmaINTS0Reg     = (*volatile.Register32)(unsafe.Pointer(uintptr(dmaINTS0)))
	dmaChanAbortReg = (*volatile.Register32)(unsafe.Pointer(uintptr(dmaChanAbort)))
)

// dmaChannel is one of the twelve RP2040 DMA channels
type dmaChannel uint8

func (c dmaChannel) reg(offset uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(dmaBase) + uintptr(c)*dmaChStride + offset))
}

// dmaConfig describes a channel's CTRL word
type dmaConfig struct {
	size      uint32
	incrRead  bool
	incrWrite bool
	ringBits  uint32 // 0 = no ring
	ringWrite bool
	chainTo   dmaChannel
	treq      uint32
	highPrio  bool
}

func (c dmaChannel) ctrl(cfg dmaConfig) uint32 {
	v := uint32(dmaCtrlEN) |
		cfg.size<<dmaCtrlSizeShift |
		cfg.ringBits<<dmaCtrlRingShift |
		uint32(cfg.chainTo)<<dmaCtrlChainShift |
		cfg.treq<<dmaCtrlTreqShift
	if cfg.incrRead {
		v |= dmaCtrlIncrRead
	}
	if cfg.incrWrite {
		v |= dmaCtrlIncrWrite
	}
	if cfg.ringWrite {
		v |= dmaCtrlRingWrite
	}
	if cfg.highPrio {
		v |= dmaCtrlHighPrio
	}
	return v
}

// configure programs the channel. With start set the channel is triggered;
// otherwise it waits to be started by a chain.
func (c dmaChannel) configure(read, write uintptr, count uint32, cfg dmaConfig, start bool) {
	c.reg(dmaReadAddr).Set(uint32(read))
	c.reg(dmaWriteAddr).Set(uint32(write))
	c.reg(dmaTransCount).Set(count)
	if start {
		c.reg(dmaCtrlTrig).Set(c.ctrl(cfg))
	} else {
		c.reg(dmaAl1Ctrl).Set(c.ctrl(cfg))
	}
}

// remaining returns the channel's remaining transfer count
func (c dmaChannel) remaining() uint32 {
	return c.reg(dmaTransCount).Get()
}

// abortChannels aborts every channel in mask and waits for the abort to land
func abortChannels(mask uint32) {
	dmaChanAbortReg.Set(mask & dmaChannelMask)
	for dmaChanAbortReg.Get()&mask != 0 {
	}
}

func ptr16(p *uint16) uintptr {
	return uintptr(unsafe.Pointer(p))
}

func ptr32(p *uint32) uintptr {
	return uintptr(unsafe.Pointer(p))
}
