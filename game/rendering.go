package game

import (
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidbg/ui"
)

// Draw renders one windowed frame: the fluid, then the panels on top.
func (g *Game) Draw() {
	rl.BeginDrawing()
	now := time.Now()
	if g.cfg.Fluid.Transparent {
		g.background.Draw(float32(now.Sub(g.clock).Seconds()))
	} else {
		rl.ClearBackground(rl.Black)
	}

	if g.paused {
		// Keep showing the last state without advancing it.
		if sim := g.effect.Simulation(); sim != nil && g.effect.Running() {
			if err := sim.Render(); err != nil {
				slog.Warn("render while paused failed", "error", err)
			}
		}
	} else {
		g.step(now)
	}
	g.perfCollector.RecordPresent()

	g.drawUI()
	rl.EndDrawing()
}

// drawUI renders the HUD, tuning panel and perf panel.
func (g *Game) drawUI() {
	screenW := int32(rl.GetScreenWidth())
	screenH := int32(rl.GetScreenHeight())

	data := ui.HUDData{
		Title:  g.cfg.Screen.Title,
		FPS:    rl.GetFPS(),
		Frames: g.frames,
		State:  "disabled",
		Paused: g.paused,
	}
	if sim := g.effect.Simulation(); sim != nil {
		fs := sim.Formats()
		data.State = sim.State().String()
		data.Pending = sim.Pending()
		data.Formats = fmt.Sprintf("%s / %s / %s", fs.RGBA, fs.RG, fs.R)
	}
	g.hud.Draw(data, screenW)

	g.applyChanges(g.panel.Draw(&g.cfg.Fluid))

	if g.showPerf {
		y := int32(10)
		if g.panel.IsVisible() {
			y = 420
		}
		g.perfPanel.SetPosition(10, y)
		g.perfPanel.Draw(g.perfCollector.Stats())
	}

	g.hud.DrawControls(screenH, "Drag: stir | Click: burst | Tab: panel | P: perf | S/B/T: toggles | Space: pause")
}

// applyChanges reacts to tuning panel edits that need more than a config write.
func (g *Game) applyChanges(ch ui.Changes) {
	sim := g.effect.Simulation()
	if sim == nil {
		return
	}
	if ch.Reset {
		g.cfg.Fluid = cloneFluid(g.pristine)
		ch.Shading = true
	}
	if ch.Shading {
		if err := sim.SetShading(g.cfg.Fluid.Shading); err != nil {
			slog.Warn("switching shading failed", "error", err)
		}
	}
}
