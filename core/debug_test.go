package core

import (
	"testing"
)

func captureDebug(t *testing.T) (*[]string, *int) {
	t.Helper()
	var lines []string
	flushes := 0
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	SetDebugFlush(func() { flushes++ })
	t.Cleanup(func() {
		SetDebugWriter(func(string) {})
		SetDebugFlush(nil)
		SetDebugReinit(nil)
		SetDebugEnabled(false)
	})
	return &lines, &flushes
}

func TestDebugDisabled(t *testing.T) {
	lines, flushes := captureDebug(t)
	SetDebugEnabled(false)

	Debug("hidden")
	DebugBlock("hidden too")

	if len(*lines) != 0 {
		t.Errorf("Expected no output while disabled, got %v", *lines)
	}
	if *flushes != 0 {
		t.Errorf("Expected no flush while disabled, got %d", *flushes)
	}
}

func TestDebugBlockFlushes(t *testing.T) {
	lines, flushes := captureDebug(t)
	SetDebugEnabled(true)

	Debug("one")
	DebugBlock("two")

	if len(*lines) != 2 || (*lines)[0] != "one" || (*lines)[1] != "two" {
		t.Errorf("Unexpected output %v", *lines)
	}
	if *flushes != 1 {
		t.Errorf("Expected exactly one flush, got %d", *flushes)
	}
}

func TestDebugReinitOnlyWhenEnabled(t *testing.T) {
	captureDebug(t)
	calls := 0
	SetDebugReinit(func() { calls++ })

	SetDebugEnabled(false)
	DebugReinit()
	if calls != 0 {
		t.Errorf("Reinit ran while logging disabled")
	}

	SetDebugEnabled(true)
	DebugReinit()
	if calls != 1 {
		t.Errorf("Expected one reinit, got %d", calls)
	}
}

func TestDebugCountsDroppedLines(t *testing.T) {
	lines, _ := captureDebug(t)
	SetDebugEnabled(true)

	// queue without a worker: the second line cannot fit
	debugChan = make(chan string, 1)
	debugDropped.Store(0)
	t.Cleanup(func() {
		debugChan = nil
		debugDropped.Store(0)
	})

	Debug("queued")
	Debug("lost")

	if DebugDropped() != 1 {
		t.Errorf("Expected one dropped line, got %d", DebugDropped())
	}
	if len(*lines) != 0 {
		t.Errorf("Queued lines must not reach the writer directly, got %v", *lines)
	}
	if msg := <-debugChan; msg != "queued" {
		t.Errorf("Expected the first line to be queued, got %q", msg)
	}
}
