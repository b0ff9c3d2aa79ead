package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"gosump/protocol"
)

// pumpRetry is the wait for room in the FIFO while the firmware catches up
const pumpRetry = time.Millisecond

// pump copies bytes from the serial link into fifo until ctx is done. r must
// return periodically (a read timeout) for cancellation to be noticed.
func pump(ctx context.Context, r io.Reader, fifo *protocol.FifoBuffer) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if err != nil {
			return fmt.Errorf("serial read: %w", err)
		}
		data := buf[:n]
		for len(data) > 0 {
			data = data[fifo.Write(data):]
			if len(data) == 0 {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pumpRetry):
			}
		}
	}
}
