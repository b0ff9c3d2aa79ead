package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugFlush blocks until everything written so far has left the link
	debugFlush = func() {}

	// debugReinit re-initializes the debug link after a system clock change
	debugReinit = func() {}

	// debugEnabled controls whether debug output is active.
	// Selected by a boot pin; disabled by default.
	debugEnabled bool = false

	// Async debug output channel
	debugChan chan string

	// debugDropped counts async messages lost to a full queue. Debug runs
	// in interrupt context too.
	debugDropped atomic.Uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, stderr, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugFlush sets the function that waits for the debug link to drain
func SetDebugFlush(flush func()) {
	if flush == nil {
		flush = func() {}
	}
	debugFlush = flush
}

// SetDebugReinit sets the function that re-initializes the debug link.
// The link baud rate is derived from the system clock, so this must run
// after every clock change.
func SetDebugReinit(reinit func()) {
	if reinit == nil {
		reinit = func() {}
	}
	debugReinit = reinit
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugReinit re-initializes the debug link if logging is active
func DebugReinit() {
	if debugEnabled {
		debugReinit()
	}
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// Debug writes a debug line without blocking.
// With the async worker running the message is queued (and dropped if the
// queue is full); otherwise it goes straight to the writer.
func Debug(msg string) {
	if !debugEnabled || debugPrintln == nil {
		return
	}
	if debugChan == nil {
		debugPrintln(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
		debugDropped.Add(1)
	}
}

// DebugBlock writes a debug line and waits until it has been flushed
func DebugBlock(msg string) {
	if !debugEnabled || debugPrintln == nil {
		return
	}
	debugPrintln(msg)
	debugFlush()
}

// DebugDropped returns how many async messages were dropped
func DebugDropped() uint32 {
	return debugDropped.Load()
}
