package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anchorlab/anchorlab/internal/anchor"
	"github.com/anchorlab/anchorlab/internal/memory"
	"go.uber.org/zap"
)

const (
	// crisisCadenceFactor shortens the decision gate while in Crisis.
	crisisCadenceFactor = 0.3

	// Learning log bounds: once the log exceeds learningLogMax entries
	// it is truncated to the learningLogKeep most recent.
	learningLogMax  = 100
	learningLogKeep = 50

	idleRegen   = 0.05
	activeRegen = 0.02
)

// Config tunes a controller's loop.
type Config struct {
	Cadence      time.Duration // time between decisions (default 10s)
	ErrorBackoff time.Duration // pause after an unexpected cycle error (default 5s)
	HistoryLimit int           // bounded action history (default 256)
}

func (c Config) withDefaults() Config {
	if c.Cadence <= 0 {
		c.Cadence = 10 * time.Second
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = 5 * time.Second
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 256
	}
	return c
}

// HistoryEntry records one executed action.
type HistoryEntry struct {
	Action       string             `json:"action"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	Result       map[string]string  `json:"result,omitempty"`
	Error        string             `json:"error,omitempty"`
	AnchorBefore map[string]float64 `json:"anchor_state_before"`
}

// LearningEntry captures the outcome of an action for later analysis.
type LearningEntry struct {
	Action         string       `json:"action"`
	Timestamp      time.Time    `json:"timestamp"`
	Success        bool         `json:"success"`
	ChaosAfter     float64      `json:"chaos_after"`
	StabilityAfter anchor.Trend `json:"stability_after"`
	State          State        `json:"agent_state"`
}

// Status is the aggregate view of one controller.
type Status struct {
	ID               string             `json:"agent_id"`
	Personality      string             `json:"personality"`
	State            State              `json:"state"`
	Energy           float64            `json:"energy"`
	AnchorState      map[string]float64 `json:"anchor_state"`
	AvailableActions int                `json:"available_actions"`
	ActionsTaken     int                `json:"actions_taken"`
	LastAction       *HistoryEntry      `json:"last_action,omitempty"`
	Running          bool               `json:"is_running"`
}

// Controller runs one agent's autonomous decision cycle against a private
// anchor vector and a private action catalog. A controller's cycles are
// strictly sequential; controllers never share mutable state with each
// other.
type Controller struct {
	id       string
	strategy Strategy
	vector   *anchor.Vector
	memories *memory.Store // optional context store
	actions  map[string]*Action
	cfg      Config

	mu           sync.Mutex
	state        State
	energy       float64
	lastDecision time.Time
	actionsTaken int // monotonic, unlike the bounded history
	history      []HistoryEntry
	learning     []LearningEntry
	running      bool
	cancel       context.CancelFunc

	now    func() time.Time
	logger *zap.Logger
}

// NewController creates a controller with a fresh private action catalog.
// mem may be nil when no memory context is wanted.
func NewController(id string, strategy Strategy, vector *anchor.Vector, mem *memory.Store, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Controller{
		id:           id,
		strategy:     strategy,
		vector:       vector,
		memories:     mem,
		actions:      DefaultActions(),
		cfg:          cfg,
		state:        StateIdle,
		energy:       1.0,
		lastDecision: time.Now(),
		now:          time.Now,
		logger:       logger.With(zap.String("agent", id)),
	}
}

// SetClock overrides the controller's time source for tests.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	c.lastDecision = now()
}

// ID returns the controller's agent id.
func (c *Controller) ID() string { return c.id }

// Run executes the autonomous loop until the context is cancelled or
// Stop is called. Each cycle suspends for a full cadence before the
// next; a controller in Crisis wakes at the crisis cadence instead so
// the shortened decision gate can fire.
func (c *Controller) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		cancel()
		return
	}
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	c.logger.Info("controller started",
		zap.String("strategy", c.strategy.Name),
		zap.Duration("cadence", c.cfg.Cadence))

	for {
		if !c.IsRunning() {
			c.logger.Info("controller stopped")
			return
		}

		// A cycle error is never fatal: log, back off, resume.
		if err := c.safeCycle(); err != nil {
			c.logger.Error("cycle error", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.ErrorBackoff):
			}
		}

		select {
		case <-ctx.Done():
			c.logger.Info("controller context cancelled")
			return
		case <-time.After(c.wakeInterval()):
		}
	}
}

// wakeInterval picks the next suspension from the current state:
// a full cadence normally, 30% of it while in Crisis.
func (c *Controller) wakeInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateCrisis {
		return time.Duration(float64(c.cfg.Cadence) * crisisCadenceFactor)
	}
	return c.cfg.Cadence
}

// Stop requests cooperative shutdown. An in-flight cycle finishes; the
// loop observes the flag and exits within one wake interval.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.running = false
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsRunning reports whether the loop is active.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) safeCycle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	c.Cycle()
	return nil
}

// Cycle performs one decision cycle: recompute state from the anchor
// snapshot, regenerate energy, and, if the decision gate is open,
// consult the strategy and execute at most one validated action.
func (c *Controller) Cycle() {
	diag := c.vector.Diagnostics()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	prev := c.state
	c.state = c.computeState(diag, now)

	if c.state == StateCrisis && prev != StateCrisis && c.memories != nil {
		c.memories.Store(
			fmt.Sprintf("Entered crisis state (chaos proximity %.2f)", diag.ChaosProximity),
			memory.TypeCrisis, 0.9, c.vector.Snapshot())
	}

	c.regenerate()

	if !c.gateOpen(now) {
		return
	}

	proposed := c.strategy.Decide(Snapshot{
		State:          c.state,
		ChaosProximity: diag.ChaosProximity,
		StabilityTrend: diag.StabilityTrend,
	})
	if proposed == "" {
		return
	}
	action, ok := c.actions[proposed]
	if !ok || !c.canExecute(action, now) {
		// The strategy may propose an action that is not currently
		// legal; an invalid proposal means no action this cycle.
		return
	}

	c.execute(action, now)
}

// computeState derives the state tag fresh from the anchor snapshot.
func (c *Controller) computeState(diag anchor.Diagnostics, now time.Time) State {
	switch {
	case diag.ChaosProximity > 0.8:
		return StateCrisis
	case diag.VelocityMagnitude > 0.3:
		return StateThinking
	case c.anyExecutable(now):
		return StateActing
	default:
		return StateIdle
	}
}

func (c *Controller) anyExecutable(now time.Time) bool {
	for _, a := range c.actions {
		if c.canExecute(a, now) {
			return true
		}
	}
	return false
}

// regenerate restores energy before the decision step: idle agents
// recover faster than busy ones.
func (c *Controller) regenerate() {
	rate := activeRegen
	if c.state == StateIdle {
		rate = idleRegen
	}
	c.energy += rate
	if c.energy > 1.0 {
		c.energy = 1.0
	}
}

// gateOpen reports whether enough time has passed since the last decision.
// Crisis reacts at 30% of the configured cadence.
func (c *Controller) gateOpen(now time.Time) bool {
	gate := c.cfg.Cadence
	if c.state == StateCrisis {
		gate = time.Duration(float64(gate) * crisisCadenceFactor)
	}
	return now.Sub(c.lastDecision) > gate
}

// canExecute is the executability predicate: cooldown elapsed, enough
// energy, and every anchor requirement met.
func (c *Controller) canExecute(a *Action, now time.Time) bool {
	if now.Sub(a.lastExecuted) < a.Cooldown {
		return false
	}
	if c.energy < a.EnergyCost {
		return false
	}
	for dim, min := range a.Requirements {
		if c.vector.Get(dim) < min {
			return false
		}
	}
	return true
}

// execute runs one action. Cooldown and energy are charged up front and
// never refunded; a failed result generation skips the anchor mutation
// but still records a failed outcome.
func (c *Controller) execute(a *Action, now time.Time) {
	a.lastExecuted = now
	c.lastDecision = now
	c.energy -= a.EnergyCost

	entry := HistoryEntry{
		Action:       a.ID,
		Name:         a.Name,
		Timestamp:    now,
		AnchorBefore: c.vector.Snapshot(),
	}

	result, err := c.strategy.Result(a.ID)
	if err != nil {
		entry.Error = err.Error()
		c.logger.Warn("action failed",
			zap.String("action", a.ID),
			zap.Error(err))
	} else {
		entry.Result = result
		c.vector.ApplyDeltas(a.Effects)
		c.logger.Debug("action executed",
			zap.String("action", a.ID),
			zap.Float64("energy", c.energy))
	}

	c.actionsTaken++
	c.history = append(c.history, entry)
	if len(c.history) > c.cfg.HistoryLimit {
		c.history = c.history[len(c.history)-c.cfg.HistoryLimit:]
	}

	after := c.vector.Diagnostics()
	c.learning = append(c.learning, LearningEntry{
		Action:         a.ID,
		Timestamp:      now,
		Success:        err == nil,
		ChaosAfter:     after.ChaosProximity,
		StabilityAfter: after.StabilityTrend,
		State:          c.state,
	})
	if len(c.learning) > learningLogMax {
		c.learning = c.learning[len(c.learning)-learningLogKeep:]
	}

	if err == nil && c.memories != nil {
		c.memories.Store(
			fmt.Sprintf("%s: %s", a.Name, a.Description),
			memory.TypeInteraction, 0.5, entry.AnchorBefore)
	}
}

// State returns the current state tag.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Energy returns the current energy level.
func (c *Controller) Energy() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.energy
}

// LearningLog returns a copy of the learning log.
func (c *Controller) LearningLog() []LearningEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LearningEntry(nil), c.learning...)
}

// History returns a copy of the action history.
func (c *Controller) History() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]HistoryEntry(nil), c.history...)
}

// Status aggregates the controller's observable state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		ID:               c.id,
		Personality:      c.strategy.Name,
		State:            c.state,
		Energy:           c.energy,
		AnchorState:      c.vector.Snapshot(),
		AvailableActions: len(c.actions),
		ActionsTaken:     c.actionsTaken,
		Running:          c.running,
	}
	if n := len(c.history); n > 0 {
		last := c.history[n-1]
		st.LastAction = &last
	}
	return st
}
