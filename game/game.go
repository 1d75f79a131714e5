// Package game hosts the fluid effect: it owns the backend, drives frames from
// the window loop or a fixed headless clock, forwards input, and runs telemetry.
package game

import (
	"log/slog"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidbg/config"
	"github.com/pthm-cable/fluidbg/fluid"
	"github.com/pthm-cable/fluidbg/fluid/cpu"
	"github.com/pthm-cable/fluidbg/renderer"
	"github.com/pthm-cable/fluidbg/telemetry"
	"github.com/pthm-cable/fluidbg/ui"
)

// HeadlessDT is the fixed frame interval of headless runs.
const HeadlessDT = time.Second / 60

// Options configures a Game.
type Options struct {
	Seed          int64
	Headless      bool
	LogStats      bool
	SnapshotEvery int    // Headless: write a PNG every N frames (0 = never)
	SnapshotDir   string // Directory for snapshot PNGs
	OutputDir     string // Directory for perf.csv and config.yaml
}

// Game holds the host state around one fluid Effect.
type Game struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	effect  *fluid.Effect
	reader  fluid.Reader
	surface func() fluid.Texture

	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	lastLog       time.Time

	// Windowed mode only
	background *renderer.BackgroundRenderer
	panel      *ui.TuningPanel
	hud        *ui.HUD
	perfPanel  *ui.PerfPanel
	showPerf   bool
	touching   bool
	pristine   config.FluidConfig

	// State
	clock         time.Time // headless frame clock; windowed start time
	paused        bool
	frames        int
	width, height int // surface in device pixels
}

// NewGameWithOptions builds the backend and the effect. Windowed mode must be
// called after rl.InitWindow.
func NewGameWithOptions(cfg *config.Config, opts Options) *Game {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Game{
		cfg:           cfg,
		opts:          opts,
		rng:           rand.New(rand.NewSource(seed)),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		pristine:      cloneFluid(cfg.Fluid),
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("output disabled", "error", err)
	}
	g.outputManager = om
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	var backend fluid.Backend
	if opts.Headless {
		b := cpu.New(cpu.Options{})
		backend, g.reader, g.surface = b, b, b.Surface
		g.width = int(float32(cfg.Screen.Width) * cfg.Derived.PixelRatio)
		g.height = int(float32(cfg.Screen.Height) * cfg.Derived.PixelRatio)
		g.clock = time.Unix(0, 0)
	} else {
		b := renderer.New(renderer.Options{})
		backend, g.reader, g.surface = b, b, b.Surface
		g.width, g.height = rl.GetRenderWidth(), rl.GetRenderHeight()
		// Input arrives in screen coordinates; the surface is in framebuffer pixels.
		if sw := rl.GetScreenWidth(); sw > 0 && g.width != sw {
			cfg.Derived.PixelRatio = float32(g.width) / float32(sw)
		}
		g.clock = time.Now()
		g.background = renderer.NewBackgroundRenderer(int32(g.width), int32(g.height), 8, 10, 16)
		g.panel = ui.NewTuningPanel(10, 10, 240)
		g.hud = ui.NewHUD()
		g.perfPanel = ui.NewPerfPanel(10, 10, 260)
	}

	g.effect = fluid.NewEffect(backend, cfg, g.width, g.height, g.rng, g.clock)
	if sim := g.effect.Simulation(); sim != nil {
		sim.SetObserver(g.perfCollector)
	}
	g.lastLog = g.clock

	slog.Info("fluid background started",
		"headless", opts.Headless,
		"seed", seed,
		"width", g.width,
		"height", g.height,
		"enabled", g.effect.Enabled(),
	)
	return g
}

func cloneFluid(f config.FluidConfig) config.FluidConfig {
	f.ColorPalette = append([]config.Color(nil), f.ColorPalette...)
	return f
}

// Effect returns the hosted effect.
func (g *Game) Effect() *fluid.Effect { return g.effect }

// Frames returns how many frames the host has driven.
func (g *Game) Frames() int { return g.frames }

// Running reports whether the effect still produces frames.
func (g *Game) Running() bool { return g.effect.Running() }

// Update handles input and advances one windowed frame. Drawing happens in Draw.
func (g *Game) Update() {
	g.handleInput()
}

// UpdateHeadless advances the fixed clock by one frame, feeds the synthetic
// pointer and runs the frame on the CPU backend.
func (g *Game) UpdateHeadless() {
	g.clock = g.clock.Add(HeadlessDT)
	g.syntheticInput()
	g.step(g.clock)
	g.maybeSnapshot()
}

// step runs one timed frame and the telemetry that follows it.
func (g *Game) step(now time.Time) {
	g.perfCollector.StartFrame()
	g.effect.Frame(now)
	g.perfCollector.EndFrame()
	g.frames++
	g.flushTelemetry(now)
}

// Unload releases the effect and closes output files.
func (g *Game) Unload() {
	g.effect.Close()
	if g.background != nil {
		g.background.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("closing output", "error", err)
	}
}
