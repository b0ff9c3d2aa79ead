package protocol

import (
	"gosump/capture"
	"gosump/core"
)

// Stage configuration register fields
const (
	StageStart        = 1 << 27
	StageSerial       = 1 << 26
	StageChannelShift = 20
	StageChannelMask  = 31 << StageChannelShift
	// Overlaps the channel field at bit 24: serial stages on channels
	// 16-31 never count as level 0
	StageLevelMask    = 3 << 24
)

// Stage is one trigger stage as written by the host
type Stage struct {
	Mask   uint32
	Values uint32
	Config uint32
}

// Immediate reports whether the stage starts the capture on its own:
// a non-empty mask, the start bit set and trigger level 0
func (s Stage) Immediate() bool {
	return s.Mask != 0 && s.Config&StageStart != 0 && s.Config&StageLevelMask == 0
}

// Serial reports whether the stage is a serial stage
func (s Stage) Serial() bool {
	return s.Config&StageSerial != 0
}

// Channel returns the channel encoded in a serial stage's configuration
func (s Stage) Channel() uint8 {
	return uint8((s.Config & StageChannelMask) >> StageChannelShift)
}

func (s Stage) valueBit(bit uint32) bool {
	return (s.Values>>bit)&1 != 0
}

type triggerSet struct {
	triggers [capture.MaxTriggers]capture.Trigger
	count    int
	dropped  int
}

func (ts *triggerSet) add(pin uint8, match capture.MatchKind) {
	if ts.count == capture.MaxTriggers {
		ts.dropped++
		core.Debug("Trigger ignored. Reached maximum number of triggers (" + core.Itoa(capture.MaxTriggers) + ")")
		return
	}
	ts.triggers[ts.count] = capture.Trigger{Enabled: true, Pin: pin, Match: match}
	ts.count++
}

// TranslateStages turns the stage registers into capture triggers, in
// ascending stage order. Only immediate stages contribute:
//
//   - parallel stages yield one trigger per mask bit below channels; edge
//     selects edge instead of level matching
//   - serial stages with mask 0b11 yield one edge trigger on the configured
//     channel when the value bits are (0,1) or (1,0)
//   - serial stages with mask 0b1 yield one level trigger on the configured
//     channel
//
// Candidates past capture.MaxTriggers are dropped and counted.
func TranslateStages(stages [StageCount]Stage, channels uint32, edge bool) (triggers [capture.MaxTriggers]capture.Trigger, dropped int) {
	var ts triggerSet
	for i, s := range stages {
		if core.IsDebugEnabled() {
			core.DebugBlock("Stage: " + core.Itoa(i) +
				" Mask: " + core.Hex(s.Mask) +
				" Values: " + core.Hex(s.Values) +
				" Configuration: " + core.Hex(s.Config))
		}
		if !s.Immediate() {
			continue
		}

		switch {
		case !s.Serial():
			for ch := uint32(0); ch < channels && ch < 32; ch++ {
				if (s.Mask>>ch)&1 == 0 {
					continue
				}
				high := s.valueBit(ch)
				ts.add(uint8(ch), parallelMatch(high, edge))
			}

		case s.Mask == 0b11:
			v0, v1 := s.valueBit(0), s.valueBit(1)
			switch {
			case !v0 && v1:
				ts.add(s.Channel(), capture.EdgeHigh)
			case v0 && !v1:
				ts.add(s.Channel(), capture.EdgeLow)
			}

		case s.Mask == 0b1:
			if s.valueBit(0) {
				ts.add(s.Channel(), capture.LevelHigh)
			} else {
				ts.add(s.Channel(), capture.LevelLow)
			}
		}
	}
	return ts.triggers, ts.dropped
}

func parallelMatch(high, edge bool) capture.MatchKind {
	switch {
	case edge && high:
		return capture.EdgeHigh
	case edge:
		return capture.EdgeLow
	case high:
		return capture.LevelHigh
	}
	return capture.LevelLow
}
