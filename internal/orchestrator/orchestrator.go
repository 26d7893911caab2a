package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/anchorlab/anchorlab/internal/agent"
	"go.uber.org/zap"
)

// ErrUnknownAgent is returned when an agent id is not registered.
var ErrUnknownAgent = fmt.Errorf("unknown agent")

// Orchestrator owns a set of agent controllers and runs their decision
// loops concurrently. Each controller's loop is an independent goroutine;
// controllers share no mutable state with each other.
type Orchestrator struct {
	controllers map[string]*agent.Controller
	mu          sync.RWMutex
	wg          sync.WaitGroup
	logger      *zap.Logger
}

// New creates an empty orchestrator.
func New(logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		controllers: make(map[string]*agent.Controller),
		logger:      logger,
	}
}

// Add registers a controller. Replacing a running controller is refused.
func (o *Orchestrator) Add(c *agent.Controller) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, ok := o.controllers[c.ID()]; ok && prev.IsRunning() {
		return fmt.Errorf("agent %s: already registered and running", c.ID())
	}
	o.controllers[c.ID()] = c
	o.logger.Info("agent registered", zap.String("agent", c.ID()))
	return nil
}

// Remove stops and unregisters a controller.
func (o *Orchestrator) Remove(id string) error {
	o.mu.Lock()
	c, ok := o.controllers[id]
	if ok {
		delete(o.controllers, id)
	}
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("agent %s: %w", id, ErrUnknownAgent)
	}
	c.Stop()
	o.logger.Info("agent removed", zap.String("agent", id))
	return nil
}

// Get returns a controller by id.
func (o *Orchestrator) Get(id string) (*agent.Controller, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c, ok := o.controllers[id]
	return c, ok
}

// StartAll launches every controller's loop concurrently. Controllers
// already running are left alone.
func (o *Orchestrator) StartAll(ctx context.Context) {
	o.mu.RLock()
	controllers := make([]*agent.Controller, 0, len(o.controllers))
	for _, c := range o.controllers {
		controllers = append(controllers, c)
	}
	o.mu.RUnlock()

	var started int
	for _, c := range controllers {
		if c.IsRunning() {
			continue
		}
		started++
		o.wg.Add(1)
		go func(c *agent.Controller) {
			defer o.wg.Done()
			c.Run(ctx)
		}(c)
	}
	o.logger.Info("agents started", zap.Int("count", started))
}

// Start launches a single controller's loop.
func (o *Orchestrator) Start(ctx context.Context, id string) error {
	c, ok := o.Get(id)
	if !ok {
		return fmt.Errorf("agent %s: %w", id, ErrUnknownAgent)
	}
	if c.IsRunning() {
		return nil
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		c.Run(ctx)
	}()
	return nil
}

// Stop requests cooperative shutdown of one controller. The loop observes
// the flag once per cycle, so termination completes within one cadence
// interval rather than instantaneously.
func (o *Orchestrator) Stop(id string) error {
	c, ok := o.Get(id)
	if !ok {
		return fmt.Errorf("agent %s: %w", id, ErrUnknownAgent)
	}
	c.Stop()
	return nil
}

// StopAll requests cooperative shutdown of every controller and waits
// for all loops to exit.
func (o *Orchestrator) StopAll() {
	o.mu.RLock()
	for _, c := range o.controllers {
		c.Stop()
	}
	o.mu.RUnlock()

	o.wg.Wait()
	o.logger.Info("all agents stopped")
}

// Status aggregates every controller's status, ordered by agent id.
func (o *Orchestrator) Status() []agent.Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	statuses := make([]agent.Status, 0, len(o.controllers))
	for _, c := range o.controllers {
		statuses = append(statuses, c.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}

// Len returns the number of registered controllers.
func (o *Orchestrator) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.controllers)
}
