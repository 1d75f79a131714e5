package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/joho/godotenv"

	"github.com/pthm-cable/fluidbg/config"
	"github.com/pthm-cable/fluidbg/game"
)

// configEnv names the config path when -config is not given.
const configEnv = "FLUIDBG_CONFIG"

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = $"+configEnv+" or defaults)")
	headless := flag.Bool("headless", false, "Run on the CPU backend without a window")
	logStats := flag.Bool("log-stats", false, "Output perf stats via slog")
	frames := flag.Int("frames", 0, "Stop after N frames (0 = unlimited; headless defaults to 600)")
	snapshotEvery := flag.Int("snapshot-every", 0, "Headless: write a PNG every N frames (0 = never)")
	snapshotDir := flag.String("snapshot-dir", "snapshots", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for perf.csv and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Optional .env supplies FLUIDBG_CONFIG and friends.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", "error", err)
	}
	path := *configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}

	// Initialize config before anything else
	if err := config.Init(path); err != nil {
		slog.Error("failed to load config", "error", err, "path", path)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := game.Options{
		Seed:          *seed,
		Headless:      *headless,
		LogStats:      *logStats,
		SnapshotEvery: *snapshotEvery,
		SnapshotDir:   *snapshotDir,
		OutputDir:     *outputDir,
	}

	if *headless {
		maxFrames := *frames
		if maxFrames <= 0 {
			maxFrames = 600
		}

		g := game.NewGameWithOptions(cfg, opts)
		defer g.Unload()

		slog.Info("starting headless run", "frames", maxFrames, "snapshot_every", *snapshotEvery)
		start := time.Now()
		for g.Frames() < maxFrames && g.Running() {
			g.UpdateHeadless()
		}
		slog.Info("headless run finished",
			"frames", g.Frames(),
			"elapsed", time.Since(start).Round(time.Millisecond).String(),
			"error", g.Effect().Err(),
		)
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagWindowHighdpi)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g := game.NewGameWithOptions(cfg, opts)
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *frames > 0 && g.Frames() >= *frames {
			break
		}
	}
}
