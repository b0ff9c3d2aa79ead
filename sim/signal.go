package sim

import "errors"

var ErrUnknownPattern = errors.New("sim: unknown signal pattern")

// Counter drives the pins with a binary counter advancing every period ticks
func Counter(period uint64) Signal {
	if period == 0 {
		period = 1
	}
	return func(tick uint64) uint16 {
		return uint16(tick / period)
	}
}

// Clocks drives channel i with a square wave of half period 2^i ticks
func Clocks() Signal {
	return func(tick uint64) uint16 {
		return uint16(tick)
	}
}

// WalkingOne moves a single high bit across all 16 channels, one channel
// per period ticks
func WalkingOne(period uint64) Signal {
	if period == 0 {
		period = 1
	}
	return func(tick uint64) uint16 {
		return 1 << ((tick / period) % 16)
	}
}

// Samples replays words in a loop
func Samples(words []uint16) Signal {
	if len(words) == 0 {
		return nil
	}
	return func(tick uint64) uint16 {
		return words[tick%uint64(len(words))]
	}
}

// Pattern returns the named signal generator
func Pattern(name string, period uint64) (Signal, error) {
	switch name {
	case "counter":
		return Counter(period), nil
	case "clocks":
		return Clocks(), nil
	case "walking":
		return WalkingOne(period), nil
	case "low", "":
		return func(uint64) uint16 { return 0 }, nil
	}
	return nil, ErrUnknownPattern
}
