package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anchorlab/anchorlab/internal/anchor"
	"github.com/anchorlab/anchorlab/internal/memory"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestController(t *testing.T, strategyName string) (*Controller, *anchor.Vector, *testClock) {
	t.Helper()
	strat, ok := NewStrategy(strategyName)
	if !ok {
		t.Fatalf("unknown strategy %q", strategyName)
	}
	vec := anchor.NewVector()
	ctrl := NewController("agent-"+strategyName, strat, vec, nil, Config{Cadence: 10 * time.Second}, nil)
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	ctrl.SetClock(clock.now)
	return ctrl, vec, clock
}

func TestCrisisTransitionOnHighChaos(t *testing.T) {
	ctrl, vec, _ := newTestController(t, "scientist")

	vec.SetDiagnostics(anchor.Diagnostics{ChaosProximity: 0.85})
	ctrl.Cycle()
	if got := ctrl.State(); got != StateCrisis {
		t.Errorf("state = %q, want crisis at chaos 0.85", got)
	}

	// Recomputed fresh each cycle: dropping chaos leaves crisis.
	vec.SetDiagnostics(anchor.Diagnostics{ChaosProximity: 0.1, VelocityMagnitude: 0.5})
	ctrl.Cycle()
	if got := ctrl.State(); got != StateThinking {
		t.Errorf("state = %q, want thinking after chaos subsides", got)
	}
}

func TestStateActingWhenActionExecutable(t *testing.T) {
	ctrl, _, _ := newTestController(t, "scientist")

	// Default vector (all 0.5) satisfies observe's Choice >= 0.3.
	ctrl.Cycle()
	if got := ctrl.State(); got != StateActing {
		t.Errorf("state = %q, want acting with executable actions", got)
	}
}

func TestStateIdleWhenNothingExecutable(t *testing.T) {
	ctrl, vec, _ := newTestController(t, "scientist")
	vec.ApplyDeltas(map[string]float64{"Choice": -0.5, "Time": -0.5})

	ctrl.mu.Lock()
	ctrl.energy = 0.01 // below every action's cost
	ctrl.mu.Unlock()

	ctrl.Cycle()
	if got := ctrl.State(); got != StateIdle {
		t.Errorf("state = %q, want idle with no executable action", got)
	}
}

func TestEnergyRegeneration(t *testing.T) {
	ctrl, vec, _ := newTestController(t, "scientist")
	vec.ApplyDeltas(map[string]float64{"Choice": -0.5, "Time": -0.5})

	ctrl.mu.Lock()
	ctrl.energy = 0.0
	ctrl.mu.Unlock()

	ctrl.Cycle() // idle: +0.05
	if got := ctrl.Energy(); got != 0.05 {
		t.Errorf("idle regen: energy = %v, want 0.05", got)
	}

	vec.SetDiagnostics(anchor.Diagnostics{VelocityMagnitude: 0.5})
	ctrl.Cycle() // thinking: +0.02
	if got := ctrl.Energy(); got != 0.07 {
		t.Errorf("active regen: energy = %v, want 0.07", got)
	}
}

func TestEnergyCapsAtOne(t *testing.T) {
	ctrl, vec, clock := newTestController(t, "scientist")
	vec.ApplyDeltas(map[string]float64{"Choice": -0.5, "Time": -0.5})

	for i := 0; i < 40; i++ {
		clock.advance(time.Second)
		ctrl.Cycle()
	}
	if got := ctrl.Energy(); got != 1.0 {
		t.Errorf("energy = %v, want capped at 1.0", got)
	}
}

func TestDecisionGateRequiresCadence(t *testing.T) {
	ctrl, _, clock := newTestController(t, "scientist")

	ctrl.Cycle()
	if n := len(ctrl.History()); n != 0 {
		t.Fatalf("decision before cadence elapsed: %d actions", n)
	}

	clock.advance(11 * time.Second)
	ctrl.Cycle()
	if n := len(ctrl.History()); n != 1 {
		t.Fatalf("got %d actions after cadence elapsed, want 1", n)
	}
}

func TestCrisisShortensDecisionGate(t *testing.T) {
	ctrl, vec, clock := newTestController(t, "scientist")
	vec.SetDiagnostics(anchor.Diagnostics{ChaosProximity: 0.9})

	// 4s is past 30% of the 10s cadence but well short of the full one.
	clock.advance(4 * time.Second)
	ctrl.Cycle()
	if n := len(ctrl.History()); n != 1 {
		t.Fatalf("crisis decision not taken at 30%% cadence: %d actions", n)
	}
	if ctrl.History()[0].Action != ActionRecalibrate {
		t.Errorf("crisis action = %q, want %q", ctrl.History()[0].Action, ActionRecalibrate)
	}
}

func TestCooldownBlocksReExecution(t *testing.T) {
	ctrl, vec, clock := newTestController(t, "skeptic")
	// Degrading trend makes the skeptic propose stabilize (cooldown 60s).
	vec.SetDiagnostics(anchor.Diagnostics{StabilityTrend: anchor.TrendDegrading})

	clock.advance(11 * time.Second)
	ctrl.Cycle()
	if n := len(ctrl.History()); n != 1 {
		t.Fatalf("setup: got %d actions, want 1", n)
	}

	// All other conditions hold, but 59s < the 60s cooldown.
	clock.advance(59 * time.Second)
	ctrl.Cycle()
	if n := len(ctrl.History()); n != 1 {
		t.Fatalf("stabilize re-executed within cooldown: %d actions", n)
	}

	clock.advance(2 * time.Second)
	ctrl.Cycle()
	if n := len(ctrl.History()); n != 2 {
		t.Fatalf("stabilize blocked after cooldown elapsed: %d actions", n)
	}
}

func TestExecutabilityRequiresAnchorMinimums(t *testing.T) {
	ctrl, vec, _ := newTestController(t, "scientist")

	a := ctrl.actions[ActionStabilize] // requires Choice >= 0.5
	vec.ApplyDeltas(map[string]float64{"Choice": -0.2})
	if ctrl.canExecute(a, ctrl.now()) {
		t.Errorf("stabilize executable with Choice below requirement")
	}
	vec.ApplyDeltas(map[string]float64{"Choice": 0.3})
	if !ctrl.canExecute(a, ctrl.now()) {
		t.Errorf("stabilize not executable with all requirements met")
	}
}

func TestExecutionAppliesEffectsAndChargesEnergy(t *testing.T) {
	ctrl, vec, clock := newTestController(t, "scientist")

	clock.advance(11 * time.Second)
	ctrl.Cycle() // scientist reflects on a stable (non-improving) trend

	hist := ctrl.History()
	if len(hist) != 1 {
		t.Fatalf("got %d actions, want 1", len(hist))
	}
	if hist[0].Action != ActionReflect {
		t.Fatalf("action = %q, want reflect", hist[0].Action)
	}
	// Reflect: Safety +0.1, Choice +0.05 from the 0.5 baseline.
	if got := vec.Get("Safety"); got != 0.6 {
		t.Errorf("Safety = %v, want 0.6", got)
	}
	if got := vec.Get("Choice"); got != 0.55 {
		t.Errorf("Choice = %v, want 0.55", got)
	}
	// 1.0 + 0.02 regen (capped) - 0.1 reflect cost.
	if got := ctrl.Energy(); got != 0.9 {
		t.Errorf("energy = %v, want 0.9", got)
	}
}

func TestFailedResultChargesButSkipsEffects(t *testing.T) {
	strat := Strategy{
		Name:   "broken",
		Decide: func(Snapshot) string { return ActionObserve },
		Result: func(string) (map[string]string, error) {
			return nil, errors.New("effect generation blew up")
		},
	}
	vec := anchor.NewVector()
	ctrl := NewController("agent-broken", strat, vec, nil, Config{Cadence: 10 * time.Second}, nil)
	clock := &testClock{t: time.Now()}
	ctrl.SetClock(clock.now)

	clock.advance(11 * time.Second)
	ctrl.Cycle()

	hist := ctrl.History()
	if len(hist) != 1 {
		t.Fatalf("failure not recorded: %d history entries", len(hist))
	}
	if hist[0].Error == "" {
		t.Errorf("history entry missing error")
	}
	// Observe's effects must not be applied on failure.
	if got := vec.Get("Safety"); got != 0.5 {
		t.Errorf("Safety = %v, want untouched 0.5", got)
	}
	// Energy cost is charged and not refunded: 1.0 + 0.02 cap - 0.05.
	if got := ctrl.Energy(); got != 0.95 {
		t.Errorf("energy = %v, want 0.95 (no refund)", got)
	}

	log := ctrl.LearningLog()
	if len(log) != 1 || log[0].Success {
		t.Errorf("learning log should record a failed outcome: %+v", log)
	}

	// The decision gate was stamped despite the failure: an immediate
	// retry is blocked.
	ctrl.Cycle()
	if n := len(ctrl.History()); n != 1 {
		t.Errorf("failed action re-executed within cooldown: %d entries", n)
	}
}

func TestLearningLogTruncation(t *testing.T) {
	ctrl, _, clock := newTestController(t, "scientist")
	obs := ctrl.actions[ActionObserve]

	var lastLen int
	for i := 0; i < 150; i++ {
		clock.advance(11 * time.Second)
		ctrl.mu.Lock()
		ctrl.energy = 1.0
		ctrl.execute(obs, clock.now())
		lastLen = len(ctrl.learning)
		ctrl.mu.Unlock()

		if lastLen > 100 {
			t.Fatalf("learning log exceeded 100: %d entries", lastLen)
		}
	}

	// 101 appends truncate to 50, then 49 more: 99.
	if lastLen != 99 {
		t.Errorf("learning log length = %d, want 99 after 150 executions", lastLen)
	}

	log := ctrl.LearningLog()
	for i := 1; i < len(log); i++ {
		if log[i].Timestamp.Before(log[i-1].Timestamp) {
			t.Fatalf("learning log not in order after truncation")
		}
	}
}

func TestCrisisEntryStoresCrisisMemory(t *testing.T) {
	strat, _ := NewStrategy("scientist")
	vec := anchor.NewVector()
	mem := memory.NewStore(100, 0.1, nil)
	ctrl := NewController("agent-mem", strat, vec, mem, Config{Cadence: 10 * time.Second}, nil)
	clock := &testClock{t: time.Now()}
	ctrl.SetClock(clock.now)

	vec.SetDiagnostics(anchor.Diagnostics{ChaosProximity: 0.95})
	ctrl.Cycle()

	stats := mem.Stats()
	if stats.MemoryTypes[memory.TypeCrisis] != 1 {
		t.Errorf("crisis memories = %d, want 1", stats.MemoryTypes[memory.TypeCrisis])
	}

	// Staying in crisis does not duplicate the entry memory.
	clock.advance(time.Hour)
	ctrl.Cycle()
	if got := mem.Stats().MemoryTypes[memory.TypeCrisis]; got != 1 {
		t.Errorf("crisis memories = %d after second cycle, want 1", got)
	}
}

func TestRunStopsCooperatively(t *testing.T) {
	strat, _ := NewStrategy("artist")
	ctrl := NewController("agent-loop", strat, anchor.NewVector(), nil,
		Config{Cadence: 20 * time.Millisecond}, nil)

	done := make(chan struct{})
	go func() {
		ctrl.Run(context.Background())
		close(done)
	}()

	deadline := time.After(time.Second)
	for !ctrl.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("controller never started")
		case <-time.After(time.Millisecond):
		}
	}

	ctrl.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller did not stop within deadline")
	}
	if ctrl.IsRunning() {
		t.Error("running flag still set after stop")
	}
}

func TestRunRegeneratesOncePerCadence(t *testing.T) {
	strat, _ := NewStrategy("scientist")
	vec := anchor.NewVector()
	vec.ApplyDeltas(map[string]float64{"Choice": -0.5, "Time": -0.5})
	ctrl := NewController("agent-slow", strat, vec, nil,
		Config{Cadence: 500 * time.Millisecond}, nil)

	ctrl.mu.Lock()
	ctrl.energy = 0.0
	ctrl.mu.Unlock()

	done := make(chan struct{})
	go func() {
		ctrl.Run(context.Background())
		close(done)
	}()

	// Stop inside the first cadence: the loop suspends a full cadence
	// between cycles, so only the initial cycle's regeneration lands.
	time.Sleep(350 * time.Millisecond)
	ctrl.Stop()
	<-done

	if got := ctrl.Energy(); got > idleRegen {
		t.Errorf("energy = %v within one cadence, want at most %v", got, idleRegen)
	}
}

func TestWakeIntervalShortensInCrisis(t *testing.T) {
	ctrl, vec, _ := newTestController(t, "scientist")

	if got := ctrl.wakeInterval(); got != 10*time.Second {
		t.Errorf("wake interval = %v outside crisis, want the full cadence", got)
	}

	vec.SetDiagnostics(anchor.Diagnostics{ChaosProximity: 0.9})
	ctrl.Cycle()
	want := time.Duration(float64(10*time.Second) * crisisCadenceFactor)
	if got := ctrl.wakeInterval(); got != want {
		t.Errorf("crisis wake interval = %v, want %v", got, want)
	}
}

func TestActionsTakenOutlivesHistoryWindow(t *testing.T) {
	strat, _ := NewStrategy("scientist")
	ctrl := NewController("agent-count", strat, anchor.NewVector(), nil,
		Config{Cadence: 10 * time.Second, HistoryLimit: 2}, nil)
	clock := &testClock{t: time.Now()}
	ctrl.SetClock(clock.now)

	obs := ctrl.actions[ActionObserve]
	for i := 0; i < 5; i++ {
		clock.advance(11 * time.Second)
		ctrl.mu.Lock()
		ctrl.energy = 1.0
		ctrl.execute(obs, clock.now())
		ctrl.mu.Unlock()
	}

	if n := len(ctrl.History()); n != 2 {
		t.Fatalf("history length = %d, want bounded at 2", n)
	}
	if got := ctrl.Status().ActionsTaken; got != 5 {
		t.Errorf("actions taken = %d, want 5 past the history bound", got)
	}
}

func TestStrategyVariants(t *testing.T) {
	cases := []struct {
		strategy string
		snap     Snapshot
		want     string
	}{
		{"scientist", Snapshot{State: StateCrisis, ChaosProximity: 0.9}, ActionRecalibrate},
		{"scientist", Snapshot{State: StateActing, ChaosProximity: 0.6}, ActionObserve},
		{"scientist", Snapshot{State: StateActing, StabilityTrend: anchor.TrendStable}, ActionReflect},
		{"scientist", Snapshot{State: StateActing, StabilityTrend: anchor.TrendImproving}, ActionObserve},
		{"artist", Snapshot{State: StateCrisis, ChaosProximity: 0.95}, ActionRecalibrate},
		{"artist", Snapshot{State: StateCrisis, ChaosProximity: 0.85}, ActionObserve},
		{"artist", Snapshot{State: StateActing, ChaosProximity: 0.5}, ActionObserve},
		{"artist", Snapshot{State: StateIdle, ChaosProximity: 0.1}, ActionReflect},
		{"skeptic", Snapshot{State: StateCrisis, ChaosProximity: 0.9}, ActionRecalibrate},
		{"skeptic", Snapshot{State: StateActing, StabilityTrend: anchor.TrendDegrading}, ActionStabilize},
		{"skeptic", Snapshot{State: StateActing, ChaosProximity: 0.5, StabilityTrend: anchor.TrendStable}, ActionObserve},
		{"skeptic", Snapshot{State: StateIdle, ChaosProximity: 0.1, StabilityTrend: anchor.TrendStable}, ActionReflect},
	}

	for _, tc := range cases {
		strat, ok := NewStrategy(tc.strategy)
		if !ok {
			t.Fatalf("unknown strategy %q", tc.strategy)
		}
		if got := strat.Decide(tc.snap); got != tc.want {
			t.Errorf("%s %+v: decided %q, want %q", tc.strategy, tc.snap, got, tc.want)
		}
	}
}

func TestNewStrategyUnknown(t *testing.T) {
	if _, ok := NewStrategy("nihilist"); ok {
		t.Error("unknown personality should not resolve to a strategy")
	}
}

func TestDefaultActionsAreNotShared(t *testing.T) {
	a := DefaultActions()
	b := DefaultActions()

	a[ActionObserve].lastExecuted = time.Now()
	if !b[ActionObserve].lastExecuted.IsZero() {
		t.Error("cooldown state leaked between action catalogs")
	}
}
