package profile

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestMixer() *Mixer {
	return NewMixer(DefaultCatalog(zap.NewNop()), zap.NewNop())
}

func TestMixEvenBlendOfCoreVector(t *testing.T) {
	catalog := NewCatalog([]*TraitProfile{
		{Name: "calm", GoalStatement: "Stay calm.", PersonaStyle: "Calm.",
			CoreVector: map[string]float64{"Fear": 0.2}},
		{Name: "anxious", GoalStatement: "Stay alert.", PersonaStyle: "Alert.",
			CoreVector: map[string]float64{"Fear": 0.8}},
	}, nil)
	m := NewMixer(catalog, nil)

	mixed, err := m.Mix([]Component{{"calm", 0.5}, {"anxious", 0.5}}, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if got := mixed.CoreVector["Fear"]; got != 0.5 {
		t.Errorf("mixed Fear = %v, want 0.5", got)
	}
}

func TestMixWeightedTraitBlend(t *testing.T) {
	m := newTestMixer()

	mixed, err := m.Mix([]Component{{"scientist", 0.6}, {"artist", 0.4}}, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	// round(0.95*0.6 + 0.85*0.4, 3) == 0.91
	if got := mixed.TraitVector["openness_intellect"]; got != 0.91 {
		t.Errorf("openness_intellect = %v, want 0.91", got)
	}
}

func TestMixRejectsBadWeightSums(t *testing.T) {
	m := newTestMixer()

	for _, weights := range [][2]float64{{0.4, 0.4}, {0.8, 0.5}} {
		_, err := m.Mix([]Component{{"scientist", weights[0]}, {"artist", weights[1]}}, "")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("weights %v: got err %v, want ValidationError", weights, err)
		}
	}
}

func TestMixWeightSumTolerance(t *testing.T) {
	m := newTestMixer()

	if _, err := m.Mix([]Component{{"scientist", 0.505}, {"artist", 0.5}}, ""); err != nil {
		t.Errorf("sum 1.005 is within tolerance, got error: %v", err)
	}
}

func TestMixRejectsUnknownProfile(t *testing.T) {
	m := newTestMixer()

	_, err := m.Mix([]Component{{"scientist", 0.5}, {"alchemist", 0.5}}, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got err %v, want ValidationError for unknown profile", err)
	}
	if !strings.Contains(err.Error(), "alchemist") {
		t.Errorf("error should name the unknown profile: %v", err)
	}
}

func TestMixDeterministicApartFromIdentity(t *testing.T) {
	m := newTestMixer()
	combos := []Component{{"artist", 0.4}, {"scientist", 0.4}, {"skeptic", 0.2}}

	a, err := m.Mix(combos, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	b, err := m.Mix(combos, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}

	if a.ID == b.ID {
		t.Errorf("seed ids should be unique")
	}
	a.ID, b.ID = "", ""
	a.CreatedAt = b.CreatedAt
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical combinations produced different seeds:\n%+v\n%+v", a, b)
	}
}

func TestMixGoalSynthesisUsesSignificantComponents(t *testing.T) {
	m := newTestMixer()

	mixed, err := m.Mix([]Component{{"scientist", 0.6}, {"artist", 0.4}}, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	// Both weights exceed 0.3, so both leading clauses contribute.
	goal := mixed.GoalStatement
	if !strings.Contains(goal, "systematically explore") || !strings.Contains(goal, "create, inspire") {
		t.Errorf("goal missing component clauses: %q", goal)
	}

	mixed, err = m.Mix([]Component{{"scientist", 0.8}, {"skeptic", 0.2}}, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if strings.Contains(mixed.GoalStatement, "question assumptions") {
		t.Errorf("0.2-weight component should not contribute to goal: %q", mixed.GoalStatement)
	}
}

func TestMixCustomGoalOverridesGoalOnly(t *testing.T) {
	m := newTestMixer()

	mixed, err := m.Mix([]Component{{"friend", 0.6}, {"researcher", 0.4}},
		"Research topics thoroughly while staying warm and accessible.")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if mixed.GoalStatement != "Research topics thoroughly while staying warm and accessible." {
		t.Errorf("custom goal not applied: %q", mixed.GoalStatement)
	}
	if !strings.HasPrefix(mixed.PersonaStyle, "Warm companion") {
		t.Errorf("persona style should still come from dominant component: %q", mixed.PersonaStyle)
	}
}

func TestMixStyleNamesOtherComponents(t *testing.T) {
	m := newTestMixer()

	mixed, err := m.Mix([]Component{{"artist", 0.5}, {"skeptic", 0.3}, {"friend", 0.2}}, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if !strings.HasPrefix(mixed.PersonaStyle, "Creative visionary") {
		t.Errorf("style should start from dominant artist: %q", mixed.PersonaStyle)
	}
	if !strings.Contains(mixed.PersonaStyle, "skeptic") {
		t.Errorf("skeptic (0.3) should be named in style note: %q", mixed.PersonaStyle)
	}
	if strings.Contains(mixed.PersonaStyle, "friend") {
		t.Errorf("friend (0.2) is at the cutoff, not above it: %q", mixed.PersonaStyle)
	}
}

func TestMixExamplesFromDominantOnly(t *testing.T) {
	m := newTestMixer()

	mixed, err := m.Mix([]Component{{"skeptic", 0.7}, {"artist", 0.3}}, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if len(mixed.Examples) != 2 {
		t.Fatalf("got %d examples, want 2", len(mixed.Examples))
	}
	if mixed.Examples[0].Assistant != "What evidence beyond anecdotes?" {
		t.Errorf("examples should come from the dominant skeptic: %+v", mixed.Examples[0])
	}
}

func TestMixRootNodesDeduplicatedUnion(t *testing.T) {
	catalog := NewCatalog([]*TraitProfile{
		{Name: "a", GoalStatement: "A.", PersonaStyle: "A.", MemoryRootNodes: []string{"N1", "N2"}},
		{Name: "b", GoalStatement: "B.", PersonaStyle: "B.", MemoryRootNodes: []string{"N2", "N3"}},
	}, nil)
	m := NewMixer(catalog, nil)

	mixed, err := m.Mix([]Component{{"a", 0.5}, {"b", 0.5}}, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	want := []string{"N1", "N2", "N3"}
	if !reflect.DeepEqual(mixed.MemoryRootNodes, want) {
		t.Errorf("root nodes = %v, want %v", mixed.MemoryRootNodes, want)
	}
}

func TestMixRejectsEmptyCombinations(t *testing.T) {
	m := newTestMixer()
	var verr *ValidationError
	if _, err := m.Mix(nil, ""); !errors.As(err, &verr) {
		t.Fatalf("got err %v, want ValidationError", err)
	}
}
