package protocol

import (
	"io"
	"time"
)

// ByteTimeout bounds the wait for each byte of a register write
const ByteTimeout = time.Millisecond

// Port is the byte link to the host
type Port interface {
	// TryReadByte returns the next received byte without waiting
	TryReadByte() (byte, bool)

	// ReadByteTimeout waits up to d for the next received byte
	ReadByteTimeout(d time.Duration) (byte, bool)

	io.Writer
}

// FifoPort reads from a FifoBuffer filled by a link reader and writes
// straight to the link
type FifoPort struct {
	in   *FifoBuffer
	out  io.Writer
	poll time.Duration
}

// NewFifoPort creates a port over in and out
func NewFifoPort(in *FifoBuffer, out io.Writer) *FifoPort {
	return &FifoPort{in: in, out: out, poll: 10 * time.Microsecond}
}

func (p *FifoPort) TryReadByte() (byte, bool) {
	return p.in.ReadByte()
}

func (p *FifoPort) ReadByteTimeout(d time.Duration) (byte, bool) {
	deadline := time.Now().Add(d)
	for {
		if b, ok := p.in.ReadByte(); ok {
			return b, true
		}
		if !time.Now().Before(deadline) {
			return 0, false
		}
		time.Sleep(p.poll)
	}
}

func (p *FifoPort) Write(data []byte) (int, error) {
	return p.out.Write(data)
}
