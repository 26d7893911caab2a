package memory

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Type classifies a memory node and determines its base decay rate.
type Type string

const (
	TypeInteraction Type = "interaction"
	TypePattern     Type = "pattern"
	TypePreference  Type = "preference"
	TypeCrisis      Type = "crisis"
)

// baseDecayRates is the daily multiplicative falloff per memory type.
// Crisis memories barely decay at all.
var baseDecayRates = map[Type]float64{
	TypeInteraction: 0.95,
	TypePattern:     0.98,
	TypePreference:  0.99,
	TypeCrisis:      0.999,
}

// Node is a single memory unit with decay and reinforcement.
type Node struct {
	ID            string             `json:"id"`
	Content       string             `json:"content"`
	Type          Type               `json:"memory_type"`
	Importance    float64            `json:"importance"`
	CreatedAt     time.Time          `json:"created_at"`
	LastAccessed  time.Time          `json:"last_accessed"`
	AccessCount   int                `json:"access_count"`
	DecayRate     float64            `json:"decay_rate"`
	AnchorContext map[string]float64 `json:"anchor_context"`
}

func newNode(content string, typ Type, importance float64, anchorCtx map[string]float64, now time.Time) *Node {
	ctx := make(map[string]float64, len(anchorCtx))
	for k, v := range anchorCtx {
		ctx[k] = v
	}
	n := &Node{
		ID:            uuid.New().String(),
		Content:       content,
		Type:          typ,
		Importance:    importance,
		CreatedAt:     now,
		LastAccessed:  now,
		AccessCount:   1,
		AnchorContext: ctx,
	}
	n.DecayRate = decayRate(typ, importance)
	return n
}

// decayRate derives the daily falloff from type and importance, capped
// at 1.0 so strength can never grow with elapsed time.
func decayRate(typ Type, importance float64) float64 {
	base, ok := baseDecayRates[typ]
	if !ok {
		base = baseDecayRates[TypeInteraction]
	}
	return math.Min(1.0, base+importance*0.05)
}

// access reinforces the node: refresh recency, count the hit, and nudge
// importance up (capped at 1.0).
func (n *Node) access(now time.Time) {
	n.LastAccessed = now
	n.AccessCount++
	n.Importance = math.Min(1.0, n.Importance+0.01)
}

// CurrentStrength is the node's decayed strength at the given time:
// importance * decay_rate^(whole days since last access).
func (n *Node) CurrentStrength(now time.Time) float64 {
	days := math.Floor(now.Sub(n.LastAccessed).Hours() / 24)
	if days <= 0 {
		return n.Importance
	}
	return n.Importance * math.Pow(n.DecayRate, days)
}
