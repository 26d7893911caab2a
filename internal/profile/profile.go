package profile

import "time"

// Example is a sample user/assistant exchange carried by a profile.
type Example struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// TraitProfile is a foundation personality template. Immutable after the
// catalog loads it.
type TraitProfile struct {
	Name            string             `json:"name"`
	GoalStatement   string             `json:"goal_statement"`
	PersonaStyle    string             `json:"persona_style"`
	CoreVector      map[string]float64 `json:"core_vector_default"`
	TraitVector     map[string]float64 `json:"personality_vector"`
	MemoryRootNodes []string           `json:"memory_root_nodes"`
	Examples        []Example          `json:"examples"`
}

// Component is one weighted ingredient of a mix.
type Component struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// MixedProfile is a freshly synthesized personality seed. Ownership
// transfers to the caller; the mixer never persists it.
type MixedProfile struct {
	ID              string             `json:"seed_id"`
	CreatedAt       time.Time          `json:"created"`
	GoalStatement   string             `json:"goal_statement"`
	PersonaStyle    string             `json:"persona_style"`
	CoreVector      map[string]float64 `json:"core_vector_default"`
	TraitVector     map[string]float64 `json:"personality_vector"`
	MemoryRootNodes []string           `json:"memory_root_nodes"`
	Examples        []Example          `json:"examples"`
	Components      []Component        `json:"mix_components"`
}
