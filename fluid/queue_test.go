package fluid

import (
	"math/rand"
	"testing"
	"time"
)

func TestSplatQueue_DueOrder(t *testing.T) {
	q := newSplatQueue()
	base := time.Unix(50, 0)

	q.push(Splat{X: 3}, base.Add(60*time.Millisecond))
	q.push(Splat{X: 1}, base)
	q.push(Splat{X: 2}, base)
	q.push(Splat{X: 4}, base.Add(time.Second))

	if got := q.due(base.Add(-time.Millisecond)); len(got) != 0 {
		t.Fatalf("nothing should be due yet, got %d", len(got))
	}

	got := q.due(base.Add(60 * time.Millisecond))
	if len(got) != 3 {
		t.Fatalf("expected 3 due splats, got %d", len(got))
	}
	for i, sp := range got {
		if sp.X != float32(i+1) {
			t.Errorf("position %d: got splat %g", i, sp.X)
		}
	}
	if q.len() != 1 {
		t.Errorf("expected 1 pending splat, got %d", q.len())
	}

	if got := q.due(base.Add(60 * time.Millisecond)); len(got) != 0 {
		t.Error("due splats must be removed once returned")
	}
	if got := q.due(base.Add(2 * time.Second)); len(got) != 1 || got[0].X != 4 {
		t.Errorf("expected the last splat, got %v", got)
	}
	if q.len() != 0 {
		t.Errorf("queue should be empty, has %d", q.len())
	}
}

func TestAutoSplatter_Schedule(t *testing.T) {
	cfg := testConfig(t)
	rng := rand.New(rand.NewSource(5))
	var a autoSplatter
	start := time.Unix(1000, 0)

	if a.due(start.Add(time.Hour)) {
		t.Fatal("unarmed splatter must never be due")
	}
	a.schedule(start.Add(time.Second))
	if a.due(start.Add(999 * time.Millisecond)) {
		t.Error("due before its time")
	}
	if !a.due(start.Add(time.Second)) {
		t.Error("not due at its time")
	}

	now := start.Add(time.Second)
	sp := a.next(now, 800, 600, cfg, rng)
	if a.due(now) {
		t.Error("next should disarm until rescheduled")
	}

	// The position stays within the central band of the surface.
	if sp.X < 800*0.3-1 || sp.X > 800*0.7+1 || sp.Y < 600*0.3-1 || sp.Y > 600*0.7+1 {
		t.Errorf("auto splat at (%g, %g) outside the central band", sp.X, sp.Y)
	}
	half := cfg.Splats.AutoForce / 2
	if sp.DX < -half || sp.DX > half || sp.DY < -half || sp.DY > half {
		t.Errorf("auto splat force (%g, %g) beyond ±%g", sp.DX, sp.DY, half)
	}
}
