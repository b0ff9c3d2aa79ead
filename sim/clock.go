package sim

import (
	"errors"
	"sync/atomic"
)

var ErrBadFrequency = errors.New("sim: unsupported clock frequency")

// Clock is a simulated processor clock. It counts every change so tests can
// tell a redundant switch from a real one.
type Clock struct {
	hz      atomic.Uint32
	changes atomic.Uint32
}

// NewClock returns a clock running at hz
func NewClock(hz uint32) *Clock {
	c := &Clock{}
	c.hz.Store(hz)
	return c
}

func (c *Clock) Frequency() uint32 {
	return c.hz.Load()
}

func (c *Clock) SetFrequency(hz uint32) error {
	if hz == 0 {
		return ErrBadFrequency
	}
	c.hz.Store(hz)
	c.changes.Add(1)
	return nil
}

// Changes returns how many times the frequency was set
func (c *Clock) Changes() uint32 {
	return c.changes.Load()
}
