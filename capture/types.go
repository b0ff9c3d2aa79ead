// Package capture implements the acquisition engine: rate selection,
// the pre-trigger ring, the post-trigger buffer, the trigger cascade and
// the state machine that arms the sampling hardware and handles its
// completion and abort interrupts.
package capture

import "errors"

// Buffer geometry
const (
	RingBits       = 10
	RingSize       = 1 << RingBits // pre-trigger ring capacity in samples
	RingMask       = RingSize - 1
	PostBufferSize = 100000 // post-trigger buffer capacity in samples

	// RingInitialCount is loaded into the ring feed's transfer counter at arm
	// time. The counter decrements once per word written.
	RingInitialCount = 0xffffffff

	MaxTriggers = 4
)

var (
	ErrBusy     = errors.New("capture: busy")
	ErrNoEngine = errors.New("capture: hardware not initialized")
)

// MatchKind selects the condition a trigger watcher waits for
type MatchKind uint8

const (
	LevelLow MatchKind = iota
	LevelHigh
	EdgeLow
	EdgeHigh
)

func (m MatchKind) String() string {
	switch m {
	case LevelLow:
		return "Level Low"
	case LevelHigh:
		return "Level High"
	case EdgeLow:
		return "Edge Low"
	case EdgeHigh:
		return "Edge High"
	}
	return "Unknown"
}

// IsEdge reports whether the match waits for a transition
func (m MatchKind) IsEdge() bool {
	return m == EdgeLow || m == EdgeHigh
}

// Trigger is one engine trigger condition
type Trigger struct {
	Enabled bool
	Pin     uint8
	Match   MatchKind
}

// Config describes one capture
type Config struct {
	TotalSamples      uint32
	Rate              uint32 // Hz
	PreTriggerSamples uint32
	Channels          uint32

	// Triggers are consumed in order up to the first disabled entry
	Triggers [MaxTriggers]Trigger
}

// TriggerCount returns the number of leading enabled triggers
func (c *Config) TriggerCount() int {
	n := 0
	for n < MaxTriggers && c.Triggers[n].Enabled {
		n++
	}
	return n
}

// State is the acquisition state
type State uint32

const (
	Idle State = iota
	Armed
	Capturing
	Complete
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Capturing:
		return "capturing"
	case Complete:
		return "complete"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Result summarizes a completed capture
type Result struct {
	Samples             uint32 // delivered pre-trigger count plus post-trigger samples
	PreTriggerCount     uint32
	RequestedPreTrigger uint32
}

// MissingPreTrigger returns how many requested pre-trigger samples do not exist
func (r Result) MissingPreTrigger() uint32 {
	if r.PreTriggerCount >= r.RequestedPreTrigger {
		return 0
	}
	return r.RequestedPreTrigger - r.PreTriggerCount
}

// Observer is notified when a capture ends.
// OnComplete runs in interrupt context and must not block.
type Observer interface {
	OnComplete(r Result)
	OnAbort()
}
