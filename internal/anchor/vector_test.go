package anchor

import "testing"

func TestApplyDeltasClamps(t *testing.T) {
	v := NewVector()
	v.ApplyDeltas(map[string]float64{"Fear": 0.9, "Safety": -0.9})

	if got := v.Get("Fear"); got != 1.0 {
		t.Errorf("Fear = %v, want clamped to 1.0", got)
	}
	if got := v.Get("Safety"); got != 0.0 {
		t.Errorf("Safety = %v, want clamped to 0.0", got)
	}
}

func TestNewVectorFromSeed(t *testing.T) {
	v := NewVectorFrom(map[string]float64{"Fear": 0.25, "Choice": 1.7})

	if got := v.Get("Fear"); got != 0.25 {
		t.Errorf("Fear = %v, want 0.25", got)
	}
	if got := v.Get("Choice"); got != 1.0 {
		t.Errorf("Choice = %v, want seed clamped to 1.0", got)
	}
	// Unseeded default dimensions stay balanced.
	if got := v.Get("Time"); got != 0.5 {
		t.Errorf("Time = %v, want 0.5", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	v := NewVector()
	snap := v.Snapshot()
	snap["Fear"] = 0.99

	if got := v.Get("Fear"); got != 0.5 {
		t.Errorf("mutating snapshot changed vector: Fear = %v", got)
	}
}

func TestDiagnosticsDefaultTrend(t *testing.T) {
	v := NewVector()
	v.SetDiagnostics(Diagnostics{ChaosProximity: 0.4})

	d := v.Diagnostics()
	if d.StabilityTrend != TrendStable {
		t.Errorf("empty trend should default to stable, got %q", d.StabilityTrend)
	}
	if d.ChaosProximity != 0.4 {
		t.Errorf("ChaosProximity = %v, want 0.4", d.ChaosProximity)
	}
}
