package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// weightTolerance is how far the combination weights may deviate
	// from summing to 1.0.
	weightTolerance = 0.01
	// goalWeightCutoff: only components above this weight contribute a
	// clause to the synthesized goal statement.
	goalWeightCutoff = 0.3
	// styleWeightCutoff: non-dominant components above this weight are
	// named in the synthesized persona style.
	styleWeightCutoff = 0.2
)

// ValidationError reports an invalid mix request. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid mix: " + e.Reason }

// Mixer blends catalog profiles into new personality seeds.
type Mixer struct {
	catalog *Catalog
	logger  *zap.Logger
}

// NewMixer creates a mixer over a loaded catalog.
func NewMixer(catalog *Catalog, logger *zap.Logger) *Mixer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mixer{catalog: catalog, logger: logger}
}

// Catalog returns the catalog the mixer blends from.
func (m *Mixer) Catalog() *Catalog { return m.catalog }

// Mix blends the named profiles by weight into a new seed. Weights must
// sum to 1.0 within tolerance and every name must exist in the catalog.
// Identical combinations against an unchanged catalog produce identical
// output apart from ID and CreatedAt. customGoal, when non-empty,
// overrides the synthesized goal statement only.
func (m *Mixer) Mix(combinations []Component, customGoal string) (*MixedProfile, error) {
	if len(combinations) == 0 {
		return nil, &ValidationError{Reason: "no components supplied"}
	}

	var totalWeight float64
	sources := make([]*TraitProfile, len(combinations))
	for i, c := range combinations {
		p, ok := m.catalog.Get(c.Name)
		if !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("unknown profile %q", c.Name)}
		}
		sources[i] = p
		totalWeight += c.Weight
	}
	if math.Abs(totalWeight-1.0) > weightTolerance {
		return nil, &ValidationError{Reason: fmt.Sprintf("weights must sum to 1.0, got %g", totalWeight)}
	}

	dominant := dominantIndex(combinations)

	mixed := &MixedProfile{
		ID:              "Mixed_" + uuid.NewString()[:8],
		CreatedAt:       time.Now().UTC(),
		CoreVector:      blendVectors(combinations, sources, func(p *TraitProfile) map[string]float64 { return p.CoreVector }),
		TraitVector:     blendVectors(combinations, sources, func(p *TraitProfile) map[string]float64 { return p.TraitVector }),
		MemoryRootNodes: unionRootNodes(sources),
		Examples:        dominantExamples(sources[dominant]),
		PersonaStyle:    synthesizeStyle(combinations, sources, dominant),
		Components:      append([]Component(nil), combinations...),
	}

	if customGoal != "" {
		mixed.GoalStatement = customGoal
	} else {
		mixed.GoalStatement = synthesizeGoal(combinations, sources)
	}

	m.logger.Info("mixed profile created",
		zap.String("seed", mixed.ID),
		zap.Int("components", len(combinations)))
	return mixed, nil
}

// blendVectors computes the per-dimension weighted average over the union
// of dimensions, rounded to 3 decimals. Each dimension blends
// independently; there is no joint normalization.
func blendVectors(combinations []Component, sources []*TraitProfile, pick func(*TraitProfile) map[string]float64) map[string]float64 {
	dims := make(map[string]struct{})
	for _, p := range sources {
		for d := range pick(p) {
			dims[d] = struct{}{}
		}
	}

	out := make(map[string]float64, len(dims))
	for d := range dims {
		var sum float64
		for i, c := range combinations {
			sum += pick(sources[i])[d] * c.Weight
		}
		out[d] = round3(sum)
	}
	return out
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// dominantIndex returns the index of the highest-weight component. Ties
// resolve to the earliest, keeping the mix deterministic.
func dominantIndex(combinations []Component) int {
	best := 0
	for i, c := range combinations {
		if c.Weight > combinations[best].Weight {
			best = i
		}
	}
	return best
}

// synthesizeGoal concatenates the leading clause of every significant
// component's goal statement.
func synthesizeGoal(combinations []Component, sources []*TraitProfile) string {
	var clauses []string
	for i, c := range combinations {
		if c.Weight <= goalWeightCutoff {
			continue
		}
		goal := sources[i].GoalStatement
		if idx := strings.Index(goal, "."); idx >= 0 {
			goal = goal[:idx]
		}
		clauses = append(clauses, goal)
	}
	return fmt.Sprintf("Combine %s in a unified approach.", strings.ToLower(strings.Join(clauses, ", ")))
}

// synthesizeStyle copies the dominant component's style, appending a note
// naming the other significant components.
func synthesizeStyle(combinations []Component, sources []*TraitProfile, dominant int) string {
	base := sources[dominant].PersonaStyle
	var others []string
	for i, c := range combinations {
		if i != dominant && c.Weight > styleWeightCutoff {
			others = append(others, c.Name)
		}
	}
	if len(others) == 0 {
		return base
	}
	return fmt.Sprintf("%s Enhanced with %s characteristics.", base, strings.Join(others, ", "))
}

// dominantExamples copies the first two exchanges of the dominant source.
func dominantExamples(p *TraitProfile) []Example {
	n := len(p.Examples)
	if n > 2 {
		n = 2
	}
	return append([]Example(nil), p.Examples[:n]...)
}

// unionRootNodes deduplicates root node ids across all components,
// sorted for deterministic output.
func unionRootNodes(sources []*TraitProfile) []string {
	seen := make(map[string]struct{})
	var nodes []string
	for _, p := range sources {
		for _, id := range p.MemoryRootNodes {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			nodes = append(nodes, id)
		}
	}
	sort.Strings(nodes)
	return nodes
}
