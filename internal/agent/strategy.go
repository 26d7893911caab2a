package agent

import (
	"fmt"

	"github.com/anchorlab/anchorlab/internal/anchor"
)

// State tags the controller's activity, recomputed fresh every cycle.
type State string

const (
	StateIdle     State = "idle"
	StateThinking State = "thinking"
	StateActing   State = "acting"
	StateCrisis   State = "crisis"
)

// Snapshot is the read-only view a strategy decides from.
type Snapshot struct {
	State          State        `json:"state"`
	ChaosProximity float64      `json:"chaos_proximity"`
	StabilityTrend anchor.Trend `json:"stability_trend"`
}

// Strategy is a personality-specific decision variant. Decide is a pure
// function proposing at most one action id ("" for none); the controller
// re-validates the proposal against the executability predicate before
// running it. Result generates the descriptive payload for an executed
// action and may fail, which the controller records as a failed outcome.
type Strategy struct {
	Name   string
	Decide func(snap Snapshot) string
	Result func(actionID string) (map[string]string, error)
}

// NewStrategy returns the decision variant for a personality name.
// Adding a personality means adding a variant here, not a subclass.
func NewStrategy(name string) (Strategy, bool) {
	switch name {
	case "scientist":
		return scientistStrategy(), true
	case "artist":
		return artistStrategy(), true
	case "skeptic":
		return skepticStrategy(), true
	default:
		return Strategy{}, false
	}
}

// scientistStrategy is methodical: stabilize crises immediately, observe
// when unstable, otherwise reflect until the trend improves.
func scientistStrategy() Strategy {
	return Strategy{
		Name: "scientist",
		Decide: func(snap Snapshot) string {
			if snap.State == StateCrisis {
				return ActionRecalibrate
			}
			if snap.ChaosProximity > 0.5 {
				return ActionObserve
			}
			if snap.StabilityTrend != anchor.TrendImproving {
				return ActionReflect
			}
			return ActionObserve
		},
		Result: func(actionID string) (map[string]string, error) {
			switch actionID {
			case ActionObserve:
				return map[string]string{
					"observation": "Collecting empirical data on anchor state patterns",
					"hypothesis":  "Current instability may be due to external perturbations",
				}, nil
			case ActionReflect:
				return map[string]string{
					"analysis": "Reviewing recent anchor transitions for causal patterns",
					"findings": "Evidence suggests goal vector misalignment",
				}, nil
			case ActionStabilize:
				return map[string]string{
					"method":        "Applied systematic stabilization protocol",
					"effectiveness": "Moderate improvement observed",
				}, nil
			case ActionRecalibrate:
				return map[string]string{
					"protocol": "Emergency recalibration sequence executed",
					"status":   "Anchor vector forced toward baseline",
				}, nil
			default:
				return nil, fmt.Errorf("no scientific protocol for action %q", actionID)
			}
		},
	}
}

// artistStrategy is intuitive: embraces moderate chaos as inspiration and
// only recalibrates at the extreme.
func artistStrategy() Strategy {
	return Strategy{
		Name: "artist",
		Decide: func(snap Snapshot) string {
			if snap.State == StateCrisis {
				if snap.ChaosProximity > 0.9 {
					return ActionRecalibrate
				}
				return ActionObserve // find inspiration in the chaos
			}
			if snap.ChaosProximity > 0.3 && snap.ChaosProximity < 0.7 {
				return ActionObserve
			}
			if snap.ChaosProximity < 0.2 {
				return ActionReflect // too stable, seek creative tension
			}
			return ActionObserve
		},
		Result: func(actionID string) (map[string]string, error) {
			switch actionID {
			case ActionObserve:
				return map[string]string{
					"inspiration": "Finding creative patterns in anchor dynamics",
					"vision":      "Chaos contains hidden beauty and meaning",
				}, nil
			case ActionReflect:
				return map[string]string{
					"contemplation": "Exploring emotional resonance of the current state",
					"insight":       "Balance between order and chaos breeds creativity",
				}, nil
			case ActionStabilize, ActionRecalibrate:
				return map[string]string{
					"expression": "Channeling recalibration through an artistic lens",
				}, nil
			default:
				return nil, fmt.Errorf("no creative response for action %q", actionID)
			}
		},
	}
}

// skepticStrategy distrusts drift: acts on degrading trends early and
// verifies before anything else.
func skepticStrategy() Strategy {
	return Strategy{
		Name: "skeptic",
		Decide: func(snap Snapshot) string {
			if snap.State == StateCrisis {
				return ActionRecalibrate
			}
			if snap.StabilityTrend == anchor.TrendDegrading {
				return ActionStabilize
			}
			if snap.ChaosProximity > 0.4 {
				return ActionObserve
			}
			return ActionReflect
		},
		Result: func(actionID string) (map[string]string, error) {
			switch actionID {
			case ActionObserve:
				return map[string]string{
					"verification": "Cross-checking anchor readings against prior cycles",
					"assessment":   "Claims of stability require independent confirmation",
				}, nil
			case ActionReflect:
				return map[string]string{
					"scrutiny":   "Questioning whether the goal vector itself is sound",
					"conclusion": "Withholding judgment pending more evidence",
				}, nil
			case ActionStabilize:
				return map[string]string{
					"intervention": "Countering the degrading trend before it compounds",
				}, nil
			case ActionRecalibrate:
				return map[string]string{
					"intervention": "Forcing a recalibration; the drift was not anecdotal",
				}, nil
			default:
				return nil, fmt.Errorf("no skeptical response for action %q", actionID)
			}
		},
	}
}
