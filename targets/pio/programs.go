//go:build rp2040

package pio

import (
	"gosump/capture"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Sampling programs
//
// fast:  in pins, N                      one sample per cycle
// slow:  in pins, N [31]                 one sample per 320 cycles
//        set x, 7   [31]
//        jmp x--, 2 [31]
//
// The slow program jumps to an absolute address and is loaded at origin 0.
const slowOrigin = 0

func buildFastProgram(pins uint8) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.In(rp2pio.InSrcPins, pins).Encode(), // 0: in pins, N
	}
}

func buildSlowProgram(pins uint8) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.In(rp2pio.InSrcPins, pins).Delay(31).Encode(),             // 0: in pins, N [31]
		asm.Set(rp2pio.SetDestX, 7).Delay(31).Encode(),                // 1: set x, 7 [31]
		asm.Jmp(slowOrigin+2, rp2pio.JmpXNZeroDec).Delay(31).Encode(), // 2: jmp x--, 2 [31]
	}
}

// Multiplexer: takes the index of the first watcher word it receives,
// raises IRQ 0 for the trigger diagnostic and pushes the index to its RX
// FIFO. The push paces the handoff transfer, which disables the multiplexer,
// so the IRQ is raised first.
func buildMuxProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestISR, 32).Encode(), // 1: out isr, 32
		asm.IRQSet(false, 0).Encode(),           // 2: irq set 0
		asm.Push(false, true).Encode(),          // 3: push block
	}
}

// Watchers wait on IN pin 0, which is mapped to the watched channel, and
// push once satisfied.
func buildTriggerProgram(match capture.MatchKind) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	level := match.Level()
	if !match.IsEdge() {
		return []uint16{
			asm.WaitPin(level, 0).Encode(), // 0: wait <level> pin 0
			asm.Push(false, true).Encode(), // 1: push block
		}
	}
	return []uint16{
		asm.WaitPin(!level, 0).Encode(), // 0: wait <!level> pin 0
		asm.WaitPin(level, 0).Encode(),  // 1: wait <level> pin 0
		asm.Push(false, true).Encode(),  // 2: push block
	}
}
