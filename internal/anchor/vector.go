package anchor

import (
	"sync"
)

// Default anchor dimensions. Every vector starts balanced at 0.5.
var defaultDimensions = []string{"Fear", "Safety", "Time", "Choice"}

// Trend describes the direction the vector's stability is moving in.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// Diagnostics are the read-only instability signals computed by the
// anchor engine and fed into the vector. The computation itself lives
// outside this package; consumers only ever read these values.
type Diagnostics struct {
	ChaosProximity    float64 `json:"chaos_proximity"`
	VelocityMagnitude float64 `json:"velocity_magnitude"`
	StabilityTrend    Trend   `json:"stability_trend"`
}

// Vector is a bounded [0,1] state vector over named dimensions.
// All access is safe for concurrent use.
type Vector struct {
	dims map[string]float64
	diag Diagnostics
	mu   sync.RWMutex
}

// NewVector creates a vector with the default dimensions at 0.5.
func NewVector() *Vector {
	return NewVectorFrom(nil)
}

// NewVectorFrom creates a vector seeded from the given dimension values.
// Missing default dimensions are filled in at 0.5; values are clamped.
func NewVectorFrom(seed map[string]float64) *Vector {
	dims := make(map[string]float64, len(defaultDimensions))
	for _, d := range defaultDimensions {
		dims[d] = 0.5
	}
	for d, v := range seed {
		dims[d] = clamp(v)
	}
	return &Vector{
		dims: dims,
		diag: Diagnostics{StabilityTrend: TrendStable},
	}
}

// Get returns the current value of a dimension, 0 if unknown.
func (v *Vector) Get(dim string) float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.dims[dim]
}

// ApplyDeltas adds each delta to its dimension, clamping into [0,1].
// Dimensions not present in the vector are created.
func (v *Vector) ApplyDeltas(deltas map[string]float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for dim, d := range deltas {
		v.dims[dim] = clamp(v.dims[dim] + d)
	}
}

// Snapshot returns a copy of all dimension values.
func (v *Vector) Snapshot() map[string]float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]float64, len(v.dims))
	for d, val := range v.dims {
		out[d] = val
	}
	return out
}

// SetDiagnostics updates the externally computed instability signals.
func (v *Vector) SetDiagnostics(d Diagnostics) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d.StabilityTrend == "" {
		d.StabilityTrend = TrendStable
	}
	v.diag = d
}

// Diagnostics returns the most recently fed instability signals.
func (v *Vector) Diagnostics() Diagnostics {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.diag
}

func clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
