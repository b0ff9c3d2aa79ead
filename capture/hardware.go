package capture

// Interrupts are the engine's entry points for the two hardware interrupt
// sources. Both may run concurrently with the main sequence.
type Interrupts interface {
	// HandleComplete is raised when the post-trigger feed has stored its
	// configured number of words
	HandleComplete()

	// HandleTrigger is raised when the multiplexer forwards a watcher pulse.
	// It is diagnostic only.
	HandleTrigger(channel uint32)
}

// Hardware is the sampling hardware driven by the engine: a continuous
// ring sampler, a post-trigger sampler, up to MaxTriggers watchers and the
// multiplexer that hands off from the ring to the post sampler on the
// first watcher pulse without CPU involvement.
type Hardware interface {
	// Init binds the samplers to pinCount consecutive pins starting at
	// pinBase and installs the interrupt entry points
	Init(pinBase, pinCount uint8, irq Interrupts) error

	// Buffers returns the ring (RingSize words, aligned for hardware
	// wrapping) and the post-trigger buffer (PostBufferSize words)
	Buffers() (ring, post []uint16)

	// Arm loads the sampling programs for plan, restarts the ring feed with
	// RingInitialCount, prepares the post feed for postSamples words with a
	// completion interrupt, and loads the watchers and the handoff chain.
	// Nothing is sampled until Start.
	Arm(plan ClockPlan, postSamples uint32, watchers []Watcher) error

	// Start enables the armed units. Without watchers the ring and the post
	// sampler start together; otherwise the ring, the multiplexer and the
	// watchers start and the post sampler waits for the handoff.
	Start()

	// Stop halts every unit, aborts all feeds and discards queued data
	Stop()

	// RingRemaining returns the ring feed's remaining transfer count
	RingRemaining() uint32
}
