package protocol

import "sync"

// FifoBuffer is a circular byte buffer between the link reader and the
// command interpreter
type FifoBuffer struct {
	mu    sync.Mutex
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer
func (f *FifoBuffer) Write(data []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// ReadByte pops one byte. ok is false when the buffer is empty.
func (f *FifoBuffer) ReadByte() (b byte, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.read == f.write {
		return 0, false
	}
	b = f.buf[f.read]
	f.read = (f.read + 1) % f.size
	return b, true
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = 0
	f.write = 0
}
