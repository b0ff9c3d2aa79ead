package protocol

import (
	"errors"
	"io"

	"gosump/core"
)

// ErrCancelled is returned by Send when a reset arrived mid-transfer
var ErrCancelled = errors.New("protocol: transfer cancelled by reset")

// Run length limits: the top header bit marks a run, leaving 7 or 15 count bits
const (
	MaxRunShort = 0x7f + 1
	MaxRunLong  = 0x7fff + 1
)

// Source is a completed capture in chronological sample order
type Source interface {
	SamplesCount() uint32
	Sample(i int) uint16
}

// Poller is checked for a reset before every emitted unit
type Poller interface {
	Read() Command
}

// Encoder streams capture samples to the host, newest first
type Encoder struct {
	w      io.Writer
	poller Poller
	buf    [4]byte
}

// NewEncoder creates an encoder writing to w. poller may be nil.
func NewEncoder(w io.Writer, poller Poller) *Encoder {
	return &Encoder{w: w, poller: poller}
}

// MaxRun returns the longest run a single header can carry for flags
func MaxRun(flags Flags) int {
	if !flags.GroupEnabled(1) || !flags.GroupEnabled(2) {
		return MaxRunShort
	}
	return MaxRunLong
}

// Send writes total samples from src, raw or run-length encoded per flags.
// Indices run from the newest sample down; indices before the first
// captured sample read as zero. A reset seen between units stops the
// transfer and returns ErrCancelled.
func (e *Encoder) Send(src Source, total uint32, flags Flags) error {
	rle := flags.Has(FlagRLE)
	core.Debug("Send samples. RLE " + core.EnabledString(rle))

	newest := int(src.SamplesCount()) - 1
	lowest := int(src.SamplesCount()) - int(total)

	var err error
	if rle {
		err = e.sendRLE(src, newest, lowest, flags)
	} else {
		err = e.sendRaw(src, newest, lowest, flags)
	}
	if err != nil {
		return err
	}
	core.Debug("Transfer completed")
	return nil
}

func (e *Encoder) cancelled() bool {
	return e.poller != nil && e.poller.Read() == CommandReset
}

func (e *Encoder) sendRaw(src Source, newest, lowest int, flags Flags) error {
	for i := newest; i >= lowest; i-- {
		if e.cancelled() {
			return ErrCancelled
		}
		v := src.Sample(i)
		if err := e.write(appendSample(e.buf[:0], v, flags)); err != nil {
			return err
		}
		if core.IsDebugEnabled() {
			core.Debug("Sample " + core.Itoa(i-lowest) + ": " + core.Hex16(v))
		}
	}
	return nil
}

func (e *Encoder) sendRLE(src Source, newest, lowest int, flags Flags) error {
	mask := flags.GroupMask()
	maxRun := MaxRun(flags)

	i := newest
	for i >= lowest {
		if e.cancelled() {
			return ErrCancelled
		}
		v := src.Sample(i) & mask
		n := 1
		i--
		for i >= lowest && n < maxRun && src.Sample(i)&mask == v {
			n++
			i--
		}
		if err := e.write(appendRun(e.buf[:0], v, n, flags)); err != nil {
			return err
		}
		if core.IsDebugEnabled() {
			core.Debug("Sample: " + core.Hex16(v) + " Count: " + core.Itoa(n))
		}
	}
	return nil
}

func (e *Encoder) write(p []byte) error {
	_, err := e.w.Write(p)
	return err
}

// appendSample appends the payload of one sample: the low byte unless
// group 1 is disabled, then the high byte unless group 2 is disabled
func appendSample(buf []byte, v uint16, flags Flags) []byte {
	if flags.GroupEnabled(1) {
		buf = append(buf, byte(v))
	}
	if flags.GroupEnabled(2) {
		buf = append(buf, byte(v>>8))
	}
	return buf
}

// appendRun appends a run header for n repeats followed by the payload
func appendRun(buf []byte, v uint16, n int, flags Flags) []byte {
	if MaxRun(flags) == MaxRunShort {
		buf = append(buf, 0x80|byte(n-1))
	} else {
		h := uint16(0x8000) | uint16(n-1)
		buf = append(buf, byte(h), byte(h>>8))
	}
	return appendSample(buf, v, flags)
}
