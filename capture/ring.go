package capture

// Window locates the pre-trigger samples inside the ring at completion time
type Window struct {
	// First is the ring slot of the oldest sample before wrap correction.
	// It is negative when the window straddles the end of the ring.
	First int32
	// Count is the number of pre-trigger samples that actually exist
	Count uint32
}

// RingWindow reconstructs the pre-trigger window from the ring feed's
// remaining transfer count. pre must not exceed RingSize.
//
// If the ring has produced fewer than pre words since arming, the window
// shrinks to the words that exist and never covers unwritten slots.
func RingWindow(remaining uint32, pre uint32) Window {
	written := uint32(RingInitialCount) - remaining
	w := Window{
		First: int32(written%RingSize) - int32(pre),
		Count: pre,
	}
	if w.First < 0 && written < RingSize {
		w.First = 0
		w.Count = written
	}
	return w
}

// Slot maps logical pre-trigger index i (0 = oldest) to a ring slot
func (w Window) Slot(i uint32) uint32 {
	s := w.First + int32(i)
	if s < 0 {
		s += RingSize
	} else if s >= RingSize {
		s -= RingSize
	}
	return uint32(s) & RingMask
}

// WrittenSinceArm returns how many words the ring feed has stored
func WrittenSinceArm(remaining uint32) uint32 {
	return uint32(RingInitialCount) - remaining
}
