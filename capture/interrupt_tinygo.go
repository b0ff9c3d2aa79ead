//go:build tinygo

package capture

import "runtime/interrupt"

// disableInterrupts masks interrupts so an abort cannot interleave with the
// completion handler
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
