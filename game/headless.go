package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fluidbg/fluid"
)

// Synthetic input timing, in frames.
const (
	sweepFrames = 120 // one left-to-right pass of the pointer
	clickEvery  = 90
)

// syntheticPointer returns the headless pointer position for a frame in host
// pixels: a horizontal sweep across the middle third with a gentle vertical wave.
func syntheticPointer(frame, w, h int) fluid.Point {
	t := float64(frame%sweepFrames) / sweepFrames
	x := float64(w) * (0.2 + 0.6*t)
	y := float64(h) * (0.5 + 0.1*math.Sin(float64(frame)*0.1))
	return fluid.Point{X: float32(x), Y: float32(y)}
}

// syntheticInput drives the effect like a user would: a continuous drag plus a
// periodic click burst. The surface is cleared first since nothing else does it.
func (g *Game) syntheticInput() {
	if c, ok := g.reader.(interface{ ClearSurface(mgl32.Vec4) }); ok {
		c.ClearSurface(mgl32.Vec4{})
	}

	w, h := g.cfg.Screen.Width, g.cfg.Screen.Height
	if g.frames%sweepFrames == 0 {
		// Restart the drag at the left edge instead of jumping across the surface.
		g.effect.TouchEnd()
	}
	p := syntheticPointer(g.frames, w, h)
	g.effect.PointerMove(p, g.clock)
	if g.frames > 0 && g.frames%clickEvery == 0 {
		g.effect.Click(p, g.clock)
	}
}
