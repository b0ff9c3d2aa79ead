package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"gosump/protocol"
)

// chunkReader returns one chunk per Read, then 0 bytes, then err
type chunkReader struct {
	chunks [][]byte
	err    error
	idle   int
}

func (r *chunkReader) Read(b []byte) (int, error) {
	if len(r.chunks) > 0 {
		n := copy(b, r.chunks[0])
		r.chunks = r.chunks[1:]
		return n, nil
	}
	if r.idle > 0 {
		r.idle--
		return 0, nil
	}
	return 0, r.err
}

func drainFifo(f *protocol.FifoBuffer) []byte {
	var out []byte
	for {
		b, ok := f.ReadByte()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func TestPumpCopiesAll(t *testing.T) {
	fifo := protocol.NewFifoBuffer(64)
	r := &chunkReader{
		chunks: [][]byte{{0x02}, {0x04, 0x00}},
		idle:   2,
		err:    io.ErrUnexpectedEOF,
	}

	err := pump(context.Background(), r, fifo)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected the read error to be returned, got %v", err)
	}
	got := drainFifo(fifo)
	if len(got) != 3 || got[0] != 0x02 || got[1] != 0x04 || got[2] != 0x00 {
		t.Errorf("Unexpected FIFO contents %v", got)
	}
}

func TestPumpStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pump(ctx, &chunkReader{chunks: [][]byte{{1}}}, protocol.NewFifoBuffer(8))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPumpWaitsForRoom(t *testing.T) {
	// capacity 4 holds 3 bytes; the fourth cannot fit and nothing drains
	fifo := protocol.NewFifoBuffer(4)
	ctx, cancel := context.WithCancel(context.Background())
	r := &cancelReader{data: []byte{1, 2, 3, 4}, cancel: cancel}

	err := pump(ctx, r, fifo)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if got := drainFifo(fifo); len(got) != 3 {
		t.Errorf("Expected a full FIFO of 3 bytes, got %v", got)
	}
}

// cancelReader returns data once and cancels the context
type cancelReader struct {
	data   []byte
	cancel context.CancelFunc
}

func (r *cancelReader) Read(b []byte) (int, error) {
	n := copy(b, r.data)
	r.data = nil
	r.cancel()
	return n, nil
}
