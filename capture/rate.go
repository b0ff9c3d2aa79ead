package capture

import (
	"gosump/core"

	"golang.org/x/exp/constraints"
)

// Clock regimes
const (
	// RateChangeThreshold separates the slow and fast sampling programs.
	// Rates strictly above it use the fast regime.
	RateChangeThreshold = 5000

	FastClockHz = 200000000
	SlowClockHz = 100000000

	// SlowCyclesPerSample is the cycle cost of one pass of the slow sampling
	// program: 32 cycles per instruction slot, 10 slots.
	SlowCyclesPerSample = 32 * 10

	MaxClockDivisor = 0xffff
	MinClockDivisor = 1
)

// Regime identifies which sampling program runs
type Regime uint8

const (
	RegimeSlow Regime = iota
	RegimeFast
)

func (r Regime) String() string {
	if r == RegimeFast {
		return "fast"
	}
	return "slow"
}

// ClockPlan is the clock configuration derived from a sample rate
type ClockPlan struct {
	Rate       uint32 // requested sample rate in Hz
	SysClockHz uint32
	Divisor    float32 // sampling unit clock divisor
	Regime     Regime
}

// DivisorParts splits the divisor into the 16.8 fixed-point form used by
// the sampling units: integer part and 1/256 fractional part.
func (p ClockPlan) DivisorParts() (whole uint16, frac uint8) {
	whole = uint16(p.Divisor)
	frac = uint8((p.Divisor - float32(whole)) * 256)
	return whole, frac
}

// SystemClock is the processor clock as seen by the engine
type SystemClock interface {
	Frequency() uint32
	SetFrequency(hz uint32) error
}

// PlanClock picks the processor clock and sampling divisor for rate.
// It is pure; the caller applies the plan on every capture start.
func PlanClock(rate uint32) ClockPlan {
	plan := ClockPlan{Rate: rate}
	if rate > RateChangeThreshold {
		plan.Regime = RegimeFast
		plan.SysClockHz = FastClockHz
		plan.Divisor = float32(FastClockHz) / float32(rate)
	} else {
		plan.Regime = RegimeSlow
		plan.SysClockHz = SlowClockHz
		if rate == 0 {
			plan.Divisor = MaxClockDivisor
		} else {
			plan.Divisor = float32(SlowClockHz) / float32(rate) / 32 / 10
		}
	}
	plan.Divisor = clamp(plan.Divisor, MinClockDivisor, MaxClockDivisor)
	return plan
}

// ApplyClock switches the processor clock to hz unless it already runs at
// that frequency. The debug link is re-initialized after a change.
func ApplyClock(clk SystemClock, hz uint32) (bool, error) {
	if clk.Frequency() == hz {
		return false, nil
	}
	if err := clk.SetFrequency(hz); err != nil {
		return false, err
	}
	core.DebugReinit()
	return true, nil
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
