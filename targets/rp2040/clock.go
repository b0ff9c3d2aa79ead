//go:build rp2040

package main

import (
	"errors"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"gosump/capture"
)

// RP2040 PLL_SYS and CLOCKS memory map
const (
	pllSysBase = 0x40028000
	pllCS      = pllSysBase + 0x00
	pllPWR     = pllSysBase + 0x04
	pllFBDIV   = pllSysBase + 0x08
	pllPRIM    = pllSysBase + 0x0C

	clocksBase     = 0x40008000
	clkSysCtrl     = clocksBase + 0x3C
	clkSysSelected = clocksBase + 0x44

	pllCSLock       = 1 << 31
	pllPWRPD        = 1 << 0
	pllPWRDSMPD     = 1 << 2
	pllPWRPostDivPD = 1 << 3
	pllPWRVCOPD     = 1 << 5

	clkSysSrcAux      = 1 << 0
	clkSysAuxSrcMask  = 7 << 5 // 0 = pll_sys
	clkSysSelectedRef = 1 << 0
	clkSysSelectedAux = 1 << 1
)

var (
	pllCSReg          = (*volatile.Register32)(unsafe.Pointer(uintptr(pllCS)))
	pllPWRReg         = (*volatile.Register32)(unsafe.Pointer(uintptr(pllPWR)))
	pllFBDIVReg       = (*volatile.Register32)(unsafe.Pointer(uintptr(pllFBDIV)))
	pllPRIMReg        = (*volatile.Register32)(unsafe.Pointer(uintptr(pllPRIM)))
	clkSysCtrlReg     = (*volatile.Register32)(unsafe.Pointer(uintptr(clkSysCtrl)))
	clkSysSelectedReg = (*volatile.Register32)(unsafe.Pointer(uintptr(clkSysSelected)))
)

// pllSetting is one VCO/post divider combination: hz = 12 MHz * fbdiv / (post1 * post2)
type pllSetting struct {
	hz    uint32
	fbdiv uint32
	post1 uint32
	post2 uint32
}

var pllSettings = []pllSetting{
	{hz: capture.FastClockHz, fbdiv: 100, post1: 6, post2: 1},
	{hz: capture.SlowClockHz, fbdiv: 125, post1: 5, post2: 3},
	{hz: bootClockHz, fbdiv: 125, post1: 6, post2: 2},
}

// TinyGo brings clk_sys up at 125 MHz
const bootClockHz = 125000000

var errUnsupportedClock = errors.New("clock: unsupported frequency")

// PLLClock implements capture.SystemClock by reprogramming PLL_SYS
type PLLClock struct {
	hz uint32
}

// NewPLLClock returns the clock as left by the runtime
func NewPLLClock() *PLLClock {
	return &PLLClock{hz: bootClockHz}
}

func (c *PLLClock) Frequency() uint32 {
	return c.hz
}

// SetFrequency moves clk_sys to clk_ref, relocks PLL_SYS and moves clk_sys
// back. Only the frequencies in pllSettings are supported.
func (c *PLLClock) SetFrequency(hz uint32) error {
	var setting *pllSetting
	for i := range pllSettings {
		if pllSettings[i].hz == hz {
			setting = &pllSettings[i]
			break
		}
	}
	if setting == nil {
		return errUnsupportedClock
	}

	state := interrupt.Disable()
	defer interrupt.Restore(state)

	// glitchless mux to clk_ref
	clkSysCtrlReg.ClearBits(clkSysSrcAux)
	for clkSysSelectedReg.Get()&clkSysSelectedRef == 0 {
	}

	pllPWRReg.Set(pllPWRPD | pllPWRDSMPD | pllPWRPostDivPD | pllPWRVCOPD)
	pllCSReg.Set(1) // refdiv
	pllFBDIVReg.Set(setting.fbdiv)
	pllPWRReg.ClearBits(pllPWRPD | pllPWRVCOPD)
	for pllCSReg.Get()&pllCSLock == 0 {
	}
	pllPRIMReg.Set(setting.post1<<16 | setting.post2<<12)
	pllPWRReg.ClearBits(pllPWRPostDivPD)

	clkSysCtrlReg.ClearBits(clkSysAuxSrcMask)
	clkSysCtrlReg.SetBits(clkSysSrcAux)
	for clkSysSelectedReg.Get()&clkSysSelectedAux == 0 {
	}

	c.hz = hz
	return nil
}
