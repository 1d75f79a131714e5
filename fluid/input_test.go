package fluid

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/pthm-cable/fluidbg/config"
)

func init() {
	config.MustInit("")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestInputTracker_FirstMoveNoSplat(t *testing.T) {
	cfg := testConfig(t)
	in := NewInputTracker(cfg, rand.New(rand.NewSource(1)))
	now := time.Unix(100, 0)

	if _, ok := in.PointerMove(Point{100, 100}, now); ok {
		t.Error("first pointer move should only record the position")
	}
	if _, _, ok := in.Last(); !ok {
		t.Error("expected a last position after the first move")
	}
}

func TestInputTracker_DragForce(t *testing.T) {
	cfg := testConfig(t)
	in := NewInputTracker(cfg, rand.New(rand.NewSource(1)))
	now := time.Unix(100, 0)

	in.PointerMove(Point{100, 100}, now)
	sp, ok := in.PointerMove(Point{110, 100}, now.Add(time.Millisecond))
	if !ok {
		t.Fatal("expected a splat for a non-zero delta")
	}
	want := 10 * cfg.Fluid.SplatForce
	if sp.DX != want || sp.DY != 0 {
		t.Errorf("force = (%g, %g), want (%g, 0)", sp.DX, sp.DY, want)
	}
	if sp.X != 110 || sp.Y != 100 {
		t.Errorf("position = (%g, %g), want (110, 100)", sp.X, sp.Y)
	}
}

func TestInputTracker_ZeroDelta(t *testing.T) {
	cfg := testConfig(t)
	in := NewInputTracker(cfg, rand.New(rand.NewSource(1)))
	now := time.Unix(100, 0)

	in.PointerMove(Point{50, 60}, now)
	if _, ok := in.PointerMove(Point{50, 60}, now); ok {
		t.Error("zero delta should not splat")
	}
}

func TestInputTracker_PixelRatio(t *testing.T) {
	cfg := testConfig(t)
	cfg.Derived.PixelRatio = 2
	in := NewInputTracker(cfg, rand.New(rand.NewSource(1)))
	now := time.Unix(100, 0)

	in.PointerMove(Point{10.4, 10}, now)
	sp, ok := in.PointerMove(Point{20.4, 10}, now)
	if !ok {
		t.Fatal("expected splat")
	}
	if sp.X != 40 || sp.DX != 20*cfg.Fluid.SplatForce {
		t.Errorf("got X=%g DX=%g, want device-pixel values", sp.X, sp.DX)
	}
}

func TestInputTracker_ColorThrottle(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fluid.ColorUpdateSpeed = 10 // at most every 100ms
	cfg.Fluid.ColorPalette = []config.Color{{R: 1}, {G: 1}, {B: 1}}
	in := NewInputTracker(cfg, rand.New(rand.NewSource(3)))
	start := time.Unix(100, 0)

	in.PointerMove(Point{0, 0}, start)
	first := in.Color()

	// Within the window the colour must not change no matter how often we move.
	for i := 1; i <= 9; i++ {
		in.PointerMove(Point{float32(i), 0}, start.Add(time.Duration(i)*10*time.Millisecond))
		if in.Color() != first {
			t.Fatalf("colour changed after %dms", i*10)
		}
	}

	// After the window a new pick happens; over many windows at least one differs.
	changed := false
	for i := 1; i <= 20; i++ {
		in.PointerMove(Point{float32(100 + i), 0}, start.Add(time.Duration(i)*101*time.Millisecond))
		if in.Color() != first {
			changed = true
		}
	}
	if !changed {
		t.Error("colour never refreshed after the throttle window")
	}
}

func TestInputTracker_ClickBurst(t *testing.T) {
	cfg := testConfig(t)
	in := NewInputTracker(cfg, rand.New(rand.NewSource(7)))

	burst := in.Click(Point{200, 150})
	if len(burst) != cfg.Splats.BurstCount {
		t.Fatalf("expected %d splats, got %d", cfg.Splats.BurstCount, len(burst))
	}
	color := burst[0].Splat.Color
	maxForce := float64(cfg.Splats.BurstPower) * 1.5 * float64(cfg.Fluid.SplatForce)
	minForce := float64(cfg.Splats.BurstPower) * 0.5 * float64(cfg.Fluid.SplatForce)
	for i, ds := range burst {
		if want := time.Duration(i) * cfg.Derived.BurstStagger; ds.Delay != want {
			t.Errorf("splat %d delay %v, want %v", i, ds.Delay, want)
		}
		if ds.Splat.Color != color {
			t.Errorf("splat %d has a different colour", i)
		}
		if ds.Splat.X != 200 || ds.Splat.Y != 150 {
			t.Errorf("splat %d at (%g,%g)", i, ds.Splat.X, ds.Splat.Y)
		}
		mag := math.Hypot(float64(ds.Splat.DX), float64(ds.Splat.DY))
		if mag < minForce*0.999 || mag > maxForce*1.001 {
			t.Errorf("splat %d force magnitude %g out of range", i, mag)
		}
	}
}

func TestInputTracker_Touch(t *testing.T) {
	cfg := testConfig(t)
	in := NewInputTracker(cfg, rand.New(rand.NewSource(9)))

	if got := in.Touch([]Point{{10, 10}}); len(got) != 0 {
		t.Errorf("first primary touch should not splat, got %d", len(got))
	}

	got := in.Touch([]Point{{15, 10}, {300, 300}, {400, 100}})
	if len(got) != 3 {
		t.Fatalf("expected drag splat plus two secondary splats, got %d", len(got))
	}
	if got[0].DX != 5*cfg.Fluid.SplatForce {
		t.Errorf("primary touch DX = %g", got[0].DX)
	}
	limit := cfg.Splats.TouchJitter * cfg.Fluid.SplatForce
	for _, sp := range got[1:] {
		if sp.DX < -limit || sp.DX > limit || sp.DY < -limit || sp.DY > limit {
			t.Errorf("secondary touch force (%g,%g) beyond ±%g", sp.DX, sp.DY, limit)
		}
	}

	in.TouchEnd()
	if _, _, ok := in.Last(); ok {
		t.Error("TouchEnd should forget the last position")
	}
	if got := in.Touch([]Point{{500, 500}}); len(got) != 0 {
		t.Error("touch after TouchEnd should not splat from the old position")
	}
}
