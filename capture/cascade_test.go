package capture

import "testing"

func TestBuildCascadeEnabledPrefix(t *testing.T) {
	var triggers [MaxTriggers]Trigger
	triggers[0] = Trigger{Enabled: true, Pin: 3, Match: EdgeHigh}
	triggers[1] = Trigger{Enabled: true, Pin: 7, Match: LevelLow}
	triggers[3] = Trigger{Enabled: true, Pin: 1, Match: LevelHigh}

	watchers := BuildCascade(triggers)
	if len(watchers) != 2 {
		t.Fatalf("Expected 2 watchers, got %d", len(watchers))
	}
	if watchers[0] != (Watcher{Index: 0, Pin: 3, Match: EdgeHigh}) {
		t.Errorf("Unexpected watcher 0: %+v", watchers[0])
	}
	if watchers[1] != (Watcher{Index: 1, Pin: 7, Match: LevelLow}) {
		t.Errorf("Unexpected watcher 1: %+v", watchers[1])
	}

	cfg := Config{Triggers: triggers}
	if cfg.TriggerCount() != 2 {
		t.Errorf("Expected TriggerCount 2, got %d", cfg.TriggerCount())
	}
}

func TestMatchFires(t *testing.T) {
	tests := []struct {
		match        MatchKind
		seenOpposite bool
		level        bool
		want         bool
	}{
		{LevelHigh, false, true, true},
		{LevelHigh, false, false, false},
		{LevelLow, false, false, true},
		{EdgeHigh, false, true, false},
		{EdgeHigh, true, true, true},
		{EdgeHigh, true, false, false},
		{EdgeLow, true, false, true},
		{EdgeLow, false, false, false},
	}

	for _, tt := range tests {
		if got := tt.match.Fires(tt.seenOpposite, tt.level); got != tt.want {
			t.Errorf("%s.Fires(%v, %v) = %v, want %v", tt.match, tt.seenOpposite, tt.level, got, tt.want)
		}
	}
}
