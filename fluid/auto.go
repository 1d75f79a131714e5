package fluid

import (
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/fluidbg/config"
)

// autoSplatter keeps the background moving without input. Positions follow a slow
// Lissajous path around the surface centre.
type autoSplatter struct {
	nextAt time.Time
	armed  bool
}

func (a *autoSplatter) schedule(at time.Time) {
	a.nextAt = at
	a.armed = true
}

func (a *autoSplatter) due(now time.Time) bool {
	return a.armed && !now.Before(a.nextAt)
}

// next builds the splat for wall time now and disarms until rescheduled.
func (a *autoSplatter) next(now time.Time, width, height int, cfg *config.Config, rng *rand.Rand) Splat {
	a.armed = false
	t := float64(now.UnixNano()) / 1e9
	force := cfg.Splats.AutoForce
	return Splat{
		X:     float32(float64(width) * (0.5 + 0.2*math.Sin(t))),
		Y:     float32(float64(height) * (0.5 + 0.2*math.Cos(t*1.1))),
		DX:    force * (rng.Float32() - 0.5),
		DY:    force * (rng.Float32() - 0.5),
		Color: pickColor(cfg.Fluid.ColorPalette, rng),
	}
}
