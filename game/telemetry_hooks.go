package game

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pthm-cable/fluidbg/snapshot"
)

// flushTelemetry logs and records perf stats once per telemetry.log_interval.
func (g *Game) flushTelemetry(now time.Time) {
	interval := g.cfg.Derived.LogInterval
	if interval <= 0 || now.Sub(g.lastLog) < interval {
		return
	}
	g.lastLog = now

	perfStats := g.perfCollector.Stats()
	if g.opts.LogStats {
		perfStats.LogStats()
	}
	if err := g.outputManager.WritePerf(perfStats, g.perfCollector.Frames()); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// maybeSnapshot writes the presented surface every SnapshotEvery frames.
func (g *Game) maybeSnapshot() {
	if g.opts.SnapshotEvery <= 0 || g.opts.SnapshotDir == "" || g.frames%g.opts.SnapshotEvery != 0 {
		return
	}
	path := filepath.Join(g.opts.SnapshotDir, fmt.Sprintf("frame_%06d.png", g.frames))
	if err := g.saveSnapshot(path); err != nil {
		slog.Error("failed to save snapshot", "error", err, "path", path)
		return
	}
	slog.Info("snapshot saved", "path", path, "frame", g.frames)
}

// saveSnapshot reads back the surface and writes it as a PNG at host resolution.
func (g *Game) saveSnapshot(path string) error {
	if !g.effect.Enabled() {
		return fmt.Errorf("effect disabled")
	}
	img, err := snapshot.Capture(g.reader, g.surface(), false)
	if err != nil {
		return err
	}
	w, h := g.cfg.Screen.Width, g.cfg.Screen.Height
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		img = snapshot.Scale(img, w, h)
	}
	return snapshot.WritePNG(path, img)
}
