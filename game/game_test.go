package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/fluidbg/config"
)

func init() {
	config.MustInit("")
}

func headlessConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Screen.Width, cfg.Screen.Height = 64, 48
	cfg.Fluid.SimResolution = 16
	cfg.Fluid.DyeResolution = 32
	cfg.GPU.Precision = "float"
	cfg.Derived.LogInterval = HeadlessDT * 4
	return cfg
}

func TestSyntheticPointer_StaysInside(t *testing.T) {
	for frame := 0; frame < 3*sweepFrames; frame++ {
		p := syntheticPointer(frame, 640, 480)
		if p.X < 0.2*640-1 || p.X > 0.8*640+1 {
			t.Fatalf("frame %d: x=%g outside the sweep band", frame, p.X)
		}
		if p.Y < 0.4*480-1 || p.Y > 0.6*480+1 {
			t.Fatalf("frame %d: y=%g outside the wave band", frame, p.Y)
		}
	}
}

func TestHeadless_RunWritesOutputs(t *testing.T) {
	cfg := headlessConfig(t)
	dir := t.TempDir()
	g := NewGameWithOptions(cfg, Options{
		Seed:          3,
		Headless:      true,
		SnapshotEvery: 5,
		SnapshotDir:   filepath.Join(dir, "snapshots"),
		OutputDir:     filepath.Join(dir, "out"),
	})

	for i := 0; i < 10; i++ {
		g.UpdateHeadless()
	}
	if !g.Running() {
		t.Fatalf("effect stopped: %v", g.Effect().Err())
	}
	if g.Frames() != 10 {
		t.Errorf("expected 10 frames, got %d", g.Frames())
	}
	g.Unload()

	for _, name := range []string{"frame_000005.png", "frame_000010.png"} {
		if _, err := os.Stat(filepath.Join(dir, "snapshots", name)); err != nil {
			t.Errorf("missing snapshot %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "config.yaml")); err != nil {
		t.Errorf("missing config snapshot: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out", "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if rows := strings.Count(strings.TrimSpace(string(data)), "\n"); rows < 1 {
		t.Errorf("expected perf rows after 10 frames, got %q", data)
	}
}

func TestHeadless_DisabledEffectIsHarmless(t *testing.T) {
	cfg := headlessConfig(t)
	cfg.Fluid.DyeResolution = 0
	g := NewGameWithOptions(cfg, Options{Seed: 1, Headless: true})
	defer g.Unload()

	if g.Effect().Enabled() {
		t.Fatal("expected the effect to be disabled")
	}
	for i := 0; i < 3; i++ {
		g.UpdateHeadless()
	}
	if err := g.saveSnapshot(filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("snapshot of a disabled effect should fail")
	}
}
