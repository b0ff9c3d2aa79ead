package capture

import "gosump/core"

// Watcher is one armed trigger unit. Index is the value it forwards to the
// multiplexer when it fires.
type Watcher struct {
	Index uint8
	Pin   uint8
	Match MatchKind
}

// BuildCascade turns the leading enabled triggers into watchers, in
// registration order, bounded to MaxTriggers
func BuildCascade(triggers [MaxTriggers]Trigger) []Watcher {
	watchers := make([]Watcher, 0, MaxTriggers)
	for i := 0; i < MaxTriggers && triggers[i].Enabled; i++ {
		w := Watcher{
			Index: uint8(i),
			Pin:   triggers[i].Pin,
			Match: triggers[i].Match,
		}
		watchers = append(watchers, w)

		if core.IsDebugEnabled() {
			core.DebugBlock("-Set trigger " + core.Itoa(i) +
				" Pin: " + core.Utoa(uint32(w.Pin)) +
				" Match: " + w.Match.String())
		}
	}
	return watchers
}

// Level returns the pin level the watcher finally waits for
func (m MatchKind) Level() bool {
	return m == LevelHigh || m == EdgeHigh
}

// Fires reports whether a watcher with match m fires on a sample at level.
// seenOpposite tells whether the watcher has already observed the opposite
// level since it was armed; edge watchers need it, level watchers do not.
func (m MatchKind) Fires(seenOpposite bool, level bool) bool {
	if level != m.Level() {
		return false
	}
	return !m.IsEdge() || seenOpposite
}
