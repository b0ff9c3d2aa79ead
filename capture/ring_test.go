package capture

import "testing"

// fillRing writes n consecutive words 0..n-1 into ring the way the ring
// feed does and returns the resulting remaining count
func fillRing(ring []uint16, n uint32) uint32 {
	remaining := uint32(RingInitialCount)
	for k := uint32(0); k < n; k++ {
		ring[WrittenSinceArm(remaining)&RingMask] = uint16(k)
		remaining--
	}
	return remaining
}

func TestRingWindowReproducesRecentWrites(t *testing.T) {
	tests := []struct {
		written uint32
		pre     uint32
	}{
		{10, 3},
		{RingSize, RingSize},
		{RingSize + 5, 10},  // window straddles the wrap, first < 0
		{RingSize + 5, RingSize},
		{3*RingSize + 700, 500},
		{2 * RingSize, 1},
		{5000, 0},
	}

	for _, tt := range tests {
		ring := make([]uint16, RingSize)
		remaining := fillRing(ring, tt.written)
		w := RingWindow(remaining, tt.pre)

		if w.Count != tt.pre {
			t.Errorf("written=%d pre=%d: expected count %d, got %d", tt.written, tt.pre, tt.pre, w.Count)
			continue
		}
		for i := uint32(0); i < w.Count; i++ {
			want := uint16(tt.written - tt.pre + i)
			if got := ring[w.Slot(i)]; got != want {
				t.Errorf("written=%d pre=%d: index %d = %d, want %d", tt.written, tt.pre, i, got, want)
				break
			}
		}
	}
}

func TestRingWindowUnderrun(t *testing.T) {
	ring := make([]uint16, RingSize)
	remaining := fillRing(ring, 7)

	w := RingWindow(remaining, 20)
	if w.Count != 7 {
		t.Fatalf("Expected window to shrink to 7 written words, got %d", w.Count)
	}
	if w.First != 0 {
		t.Errorf("Expected window to start at slot 0, got %d", w.First)
	}
	for i := uint32(0); i < w.Count; i++ {
		if ring[w.Slot(i)] != uint16(i) {
			t.Errorf("Index %d: expected %d, got %d", i, i, ring[w.Slot(i)])
		}
	}
}

func TestWindowSlotCorrection(t *testing.T) {
	w := Window{First: -2, Count: 4}
	want := []uint32{RingSize - 2, RingSize - 1, 0, 1}
	for i, s := range want {
		if got := w.Slot(uint32(i)); got != s {
			t.Errorf("Slot(%d) = %d, want %d", i, got, s)
		}
	}

	w = Window{First: RingSize - 1, Count: 2}
	if got := w.Slot(1); got != 0 {
		t.Errorf("Slot past the end: expected 0, got %d", got)
	}
}
