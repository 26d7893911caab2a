package agent

import "time"

// Priority orders actions by urgency tier.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// Action is a candidate behavior with anchor requirements, anchor effects,
// a cooldown, and an energy cost. Each controller owns its own instances:
// lastExecuted is cooldown state scoped to one controller, and sharing a
// template across controllers would leak it between agents.
type Action struct {
	ID           string             `json:"action_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Priority     Priority           `json:"priority"`
	Requirements map[string]float64 `json:"anchor_requirements"`
	Effects      map[string]float64 `json:"anchor_effects"`
	Cooldown     time.Duration      `json:"cooldown"`
	EnergyCost   float64            `json:"energy_cost"`

	lastExecuted time.Time
}

// Built-in action ids.
const (
	ActionObserve     = "observe"
	ActionReflect     = "reflect"
	ActionStabilize   = "stabilize"
	ActionRecalibrate = "emergency_recalibrate"
)

// DefaultActions returns a fresh private catalog of the built-in actions.
// Call once per controller; never share the returned instances.
func DefaultActions() map[string]*Action {
	return map[string]*Action{
		ActionObserve: {
			ID:           ActionObserve,
			Name:         "Observe Environment",
			Description:  "Gather information about current state",
			Priority:     PriorityLow,
			Requirements: map[string]float64{"Choice": 0.3},
			Effects:      map[string]float64{"Safety": 0.05, "Time": 0.02},
			Cooldown:     5 * time.Second,
			EnergyCost:   0.05,
		},
		ActionReflect: {
			ID:           ActionReflect,
			Name:         "Reflect on State",
			Description:  "Analyze internal anchor state and recent actions",
			Priority:     PriorityMedium,
			Requirements: map[string]float64{"Time": 0.4},
			Effects:      map[string]float64{"Safety": 0.1, "Choice": 0.05},
			Cooldown:     30 * time.Second,
			EnergyCost:   0.1,
		},
		ActionStabilize: {
			ID:           ActionStabilize,
			Name:         "Stabilize Anchors",
			Description:  "Balance the anchor vector toward its goal state",
			Priority:     PriorityHigh,
			Requirements: map[string]float64{"Choice": 0.5},
			Effects:      map[string]float64{"Fear": -0.1, "Safety": 0.15},
			Cooldown:     time.Minute,
			EnergyCost:   0.2,
		},
		ActionRecalibrate: {
			ID:           ActionRecalibrate,
			Name:         "Emergency Recalibration",
			Description:  "Force recalibration during a chaos state",
			Priority:     PriorityCritical,
			Requirements: map[string]float64{"Choice": 0.2}, // low bar for emergencies
			Effects:      map[string]float64{"Fear": -0.2, "Safety": 0.2, "Choice": 0.1},
			Cooldown:     5 * time.Minute,
			EnergyCost:   0.4,
		},
	}
}
