package game

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidbg/fluid"
)

// handleInput processes keyboard, pointer and touch input for one windowed frame.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.panel.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}

	g.applyChanges(g.panel.HandleKeys(&g.cfg.Fluid))

	if g.paused {
		return
	}
	now := time.Now()
	g.handleTouch()
	if g.touching {
		return
	}

	mouse := rl.GetMousePosition()
	if g.panel.Contains(mouse) {
		return
	}
	p := fluid.Point{X: mouse.X, Y: mouse.Y}
	delta := rl.GetMouseDelta()
	if delta.X != 0 || delta.Y != 0 {
		g.effect.PointerMove(p, now)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.effect.Click(p, now)
	}
}

// handleTouch forwards multi-touch positions. raylib reports a single touch as
// the mouse, so only two or more points take this path. Lifting the fingers
// resets the drag origin so the next touch does not splat from a stale position.
func (g *Game) handleTouch() {
	n := int(rl.GetTouchPointCount())
	if n < 2 {
		if g.touching {
			g.effect.TouchEnd()
			g.touching = false
		}
		return
	}
	touches := make([]fluid.Point, n)
	for i := range touches {
		v := rl.GetTouchPosition(int32(i))
		touches[i] = fluid.Point{X: v.X, Y: v.Y}
	}
	g.touching = true
	g.effect.Touch(touches)
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := rl.GetRenderWidth(), rl.GetRenderHeight()
	if w == g.width && h == g.height {
		return
	}
	g.width, g.height = w, h
	g.background.Resize(float32(w), float32(h))
	g.effect.Resize(w, h)
}
