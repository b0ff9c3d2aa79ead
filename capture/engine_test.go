package capture_test

import (
	"testing"

	"gosump/capture"
	"gosump/sim"
)

type recordingObserver struct {
	results []capture.Result
	aborts  int
}

func (o *recordingObserver) OnComplete(r capture.Result) { o.results = append(o.results, r) }
func (o *recordingObserver) OnAbort()                    { o.aborts++ }

// edgeAt reads the tick in bits 1..15 and raises channel 0 from tick at on
func edgeAt(at uint64) sim.Signal {
	return func(tick uint64) uint16 {
		v := uint16(tick) << 1
		if tick >= at {
			v |= 1
		}
		return v
	}
}

func newEngine(t *testing.T, signal sim.Signal) (*capture.Engine, *sim.Hardware, *sim.Clock, *recordingObserver) {
	t.Helper()
	hw := sim.NewHardware(signal)
	clk := sim.NewClock(125000000)
	obs := &recordingObserver{}
	e, err := capture.NewEngine(hw, clk, obs, 0, 16)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e, hw, clk, obs
}

func TestEngineNoTriggersStartsImmediately(t *testing.T) {
	e, hw, clk, obs := newEngine(t, sim.Counter(1))

	cfg := &capture.Config{TotalSamples: 8, PreTriggerSamples: 3, Rate: 1000, Channels: 16}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if e.State() != capture.Capturing {
		t.Errorf("Expected capturing after start, got %s", e.State())
	}

	hw.Step(4)
	if len(obs.results) != 0 {
		t.Fatalf("Completion fired early")
	}
	hw.Step(1)

	if len(obs.results) != 1 {
		t.Fatalf("Expected exactly one completion, got %d", len(obs.results))
	}
	r := obs.results[0]
	if r.PreTriggerCount != 3 || r.Samples != 8 || r.MissingPreTrigger() != 0 {
		t.Errorf("Unexpected result %+v", r)
	}
	if e.State() != capture.Idle || e.Busy() {
		t.Errorf("Expected idle after completion, got %s", e.State())
	}

	// ring holds ticks 0..4; the window keeps the newest three
	want := []uint16{2, 3, 4, 0, 1, 2, 3, 4}
	for i, w := range want {
		if got := e.Sample(i); got != w {
			t.Errorf("Sample(%d) = %d, want %d", i, got, w)
		}
	}
	if e.Sample(-1) != 0 || e.Sample(8) != 0 {
		t.Errorf("Out of range samples must read 0")
	}
	if hw.Running() {
		t.Errorf("Hardware still running after completion")
	}
	if clk.Frequency() != capture.SlowClockHz {
		t.Errorf("Expected idle clock 100 MHz, got %d", clk.Frequency())
	}
}

func TestEngineEdgeTriggerHandoff(t *testing.T) {
	e, hw, clk, obs := newEngine(t, edgeAt(20))

	cfg := &capture.Config{TotalSamples: 10, PreTriggerSamples: 4, Rate: 1000000, Channels: 16}
	cfg.Triggers[0] = capture.Trigger{Enabled: true, Pin: 0, Match: capture.EdgeHigh}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if clk.Frequency() != capture.FastClockHz {
		t.Errorf("Expected 200 MHz while capturing at 1 MHz, got %d", clk.Frequency())
	}
	if hw.Plan().Divisor != 200 {
		t.Errorf("Expected divisor 200, got %v", hw.Plan().Divisor)
	}

	hw.Step(26)
	if len(obs.results) != 0 {
		t.Fatalf("Completion fired before the post buffer filled")
	}
	hw.Step(1)
	if len(obs.results) != 1 {
		t.Fatalf("Expected one completion, got %d", len(obs.results))
	}

	// pre window: ticks 17..20, post: ticks 21..26
	for i := 0; i < 10; i++ {
		tick := uint16(17 + i)
		want := tick << 1
		if tick >= 20 {
			want |= 1
		}
		if got := e.Sample(i); got != want {
			t.Errorf("Sample(%d) = 0x%04X, want 0x%04X", i, got, want)
		}
	}
}

func TestEngineLevelTriggerIgnoresOtherPins(t *testing.T) {
	e, hw, _, obs := newEngine(t, func(tick uint64) uint16 {
		if tick >= 5 {
			return 1 << 9
		}
		return 1 << 2
	})

	cfg := &capture.Config{TotalSamples: 3, PreTriggerSamples: 1, Rate: 1000}
	cfg.Triggers[0] = capture.Trigger{Enabled: true, Pin: 9, Match: capture.LevelHigh}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	hw.Step(7)
	if len(obs.results) != 0 {
		t.Fatalf("Completion fired too early")
	}
	hw.Step(1)
	if len(obs.results) != 1 {
		t.Fatalf("Expected one completion, got %d", len(obs.results))
	}
	if e.Sample(0) != 1<<9 {
		t.Errorf("Expected the trigger sample to lead, got 0x%04X", e.Sample(0))
	}
}

func TestEnginePreTriggerUnderrun(t *testing.T) {
	e, hw, _, obs := newEngine(t, edgeAt(2))

	cfg := &capture.Config{TotalSamples: 9, PreTriggerSamples: 5, Rate: 1000}
	cfg.Triggers[0] = capture.Trigger{Enabled: true, Pin: 0, Match: capture.LevelHigh}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	hw.Step(20)

	if len(obs.results) != 1 {
		t.Fatalf("Expected one completion, got %d", len(obs.results))
	}
	r := obs.results[0]
	if r.PreTriggerCount != 3 || r.RequestedPreTrigger != 5 || r.MissingPreTrigger() != 2 {
		t.Errorf("Expected 3 of 5 pre-trigger samples, got %+v", r)
	}
	if e.SamplesCount() != 7 {
		t.Errorf("Expected 7 delivered samples, got %d", e.SamplesCount())
	}
}

func TestEnginePreTriggerLeavesOnePostSample(t *testing.T) {
	e, hw, _, obs := newEngine(t, edgeAt(20))

	cfg := &capture.Config{TotalSamples: 4, PreTriggerSamples: 4, Rate: 1000}
	cfg.Triggers[0] = capture.Trigger{Enabled: true, Pin: 0, Match: capture.EdgeHigh}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	hw.Step(21)
	if len(obs.results) != 0 {
		t.Fatalf("Completion fired before the post sample")
	}
	hw.Step(1)
	if len(obs.results) != 1 {
		t.Fatalf("Expected one completion, got %d", len(obs.results))
	}
	r := obs.results[0]
	if r.RequestedPreTrigger != 3 || r.Samples != 4 {
		t.Errorf("Expected 3 pre-trigger and 4 total samples, got %+v", r)
	}

	// pre window: ticks 18..20, post: tick 21
	for i := 0; i < 4; i++ {
		tick := uint16(18 + i)
		want := tick<<1 | 1
		if tick < 20 {
			want = tick << 1
		}
		if got := e.Sample(i); got != want {
			t.Errorf("Sample(%d) = 0x%04X, want 0x%04X", i, got, want)
		}
	}
}

func TestEngineClampsCounts(t *testing.T) {
	e, hw, _, obs := newEngine(t, sim.Counter(1))

	cfg := &capture.Config{TotalSamples: 5000, PreTriggerSamples: 4000, Rate: 1000}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	hw.Step(5000 - capture.RingSize)

	if len(obs.results) != 1 {
		t.Fatalf("Expected one completion, got %d", len(obs.results))
	}
	if obs.results[0].RequestedPreTrigger != capture.RingSize {
		t.Errorf("Expected pre-trigger clamp to %d, got %d", capture.RingSize, obs.results[0].RequestedPreTrigger)
	}
}

func TestEngineBusy(t *testing.T) {
	e, _, _, _ := newEngine(t, nil)

	cfg := &capture.Config{TotalSamples: 8, Rate: 1000}
	cfg.Triggers[0] = capture.Trigger{Enabled: true, Pin: 0, Match: capture.LevelHigh}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !e.Busy() {
		t.Errorf("Expected busy while capturing")
	}
	if err := e.Start(cfg); err != capture.ErrBusy {
		t.Errorf("Expected ErrBusy, got %v", err)
	}
}

func TestEngineAbort(t *testing.T) {
	e, hw, clk, obs := newEngine(t, nil)

	cfg := &capture.Config{TotalSamples: 8, Rate: 100000}
	cfg.Triggers[0] = capture.Trigger{Enabled: true, Pin: 0, Match: capture.LevelHigh}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	hw.Step(100)
	e.Abort()

	if e.State() != capture.Idle {
		t.Errorf("Expected idle after abort, got %s", e.State())
	}
	if obs.aborts != 1 || len(obs.results) != 0 {
		t.Errorf("Expected one abort and no completion, got %d aborts %d completions", obs.aborts, len(obs.results))
	}
	if hw.Running() {
		t.Errorf("Hardware still running after abort")
	}
	if clk.Frequency() != capture.SlowClockHz {
		t.Errorf("Expected idle clock after abort, got %d", clk.Frequency())
	}

	// A completion interrupt that was already in flight is defused
	e.HandleComplete()
	if len(obs.results) != 0 {
		t.Errorf("In-flight completion fired after abort")
	}

	// Aborting while idle does nothing
	e.Abort()
	if obs.aborts != 1 {
		t.Errorf("Abort while idle notified the observer")
	}
}

func TestEngineRestartAfterAbort(t *testing.T) {
	e, hw, _, obs := newEngine(t, sim.Counter(1))

	cfg := &capture.Config{TotalSamples: 8, Rate: 1000}
	cfg.Triggers[0] = capture.Trigger{Enabled: true, Pin: 15, Match: capture.LevelHigh}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	e.Abort()

	cfg.Triggers[0] = capture.Trigger{}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	hw.Step(8)
	if len(obs.results) != 1 {
		t.Errorf("Expected the restarted capture to complete, got %d completions", len(obs.results))
	}
}

func TestEngineSkipsRedundantClockChange(t *testing.T) {
	hw := sim.NewHardware(nil)
	clk := sim.NewClock(capture.SlowClockHz)
	e, err := capture.NewEngine(hw, clk, nil, 0, 16)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	cfg := &capture.Config{TotalSamples: 4, Rate: 1000}
	if err := e.Start(cfg); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	hw.Step(4)
	if clk.Changes() != 0 {
		t.Errorf("Expected no clock changes for a slow capture, got %d", clk.Changes())
	}
}

func TestNewEngineRequiresHardware(t *testing.T) {
	if _, err := capture.NewEngine(nil, sim.NewClock(1), nil, 0, 16); err != capture.ErrNoEngine {
		t.Errorf("Expected ErrNoEngine, got %v", err)
	}
}
