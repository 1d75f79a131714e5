package fluid

import (
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/fluidbg/config"
)

// Point is an input position in host (CSS-like) pixels.
type Point struct {
	X, Y float32
}

// DelayedSplat is a splat to apply Delay after the triggering event.
type DelayedSplat struct {
	Splat Splat
	Delay time.Duration
}

// InputTracker turns pointer and touch events into splats. It owns the last drag
// position and the current drag colour. It never touches fields, so it can be
// exercised without a backend.
type InputTracker struct {
	cfg *config.Config
	rng *rand.Rand

	lastX, lastY float32
	hasLast      bool

	color       config.Color
	colorAt     time.Time
	colorPicked bool
}

// NewInputTracker creates a tracker whose drag colour starts at the first palette
// entry.
func NewInputTracker(cfg *config.Config, rng *rand.Rand) *InputTracker {
	t := &InputTracker{cfg: cfg, rng: rng}
	if len(cfg.Fluid.ColorPalette) > 0 {
		t.color = cfg.Fluid.ColorPalette[0]
	}
	return t
}

// scale converts a host coordinate to device pixels.
func (t *InputTracker) scale(v float32) float32 {
	ratio := t.cfg.Derived.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	return float32(math.Floor(float64(v * ratio)))
}

// NextColor returns a random palette colour.
func (t *InputTracker) NextColor() config.Color {
	return pickColor(t.cfg.Fluid.ColorPalette, t.rng)
}

// Color returns the current drag colour.
func (t *InputTracker) Color() config.Color { return t.color }

// refreshColor picks a new drag colour at most ColorUpdateSpeed times per second.
func (t *InputTracker) refreshColor(now time.Time) {
	speed := t.cfg.Fluid.ColorUpdateSpeed
	if t.colorPicked && (speed <= 0 || now.Sub(t.colorAt) <= time.Duration(float64(time.Second)/float64(speed))) {
		return
	}
	t.color = t.NextColor()
	t.colorAt = now
	t.colorPicked = true
}

// drag records a new primary position and returns the splat for the motion since
// the previous one. No splat is produced for the first position or a zero delta.
func (t *InputTracker) drag(p Point) (Splat, bool) {
	x, y := t.scale(p.X), t.scale(p.Y)
	defer func() {
		t.lastX, t.lastY = x, y
		t.hasLast = true
	}()
	if !t.hasLast {
		return Splat{}, false
	}
	dx, dy := x-t.lastX, y-t.lastY
	if dx == 0 && dy == 0 {
		return Splat{}, false
	}
	force := t.cfg.Fluid.SplatForce
	return Splat{X: x, Y: y, DX: dx * force, DY: dy * force, Color: t.color}, true
}

// PointerMove handles a pointer move to p.
func (t *InputTracker) PointerMove(p Point, now time.Time) (Splat, bool) {
	t.refreshColor(now)
	return t.drag(p)
}

// Click returns a burst of splats radiating from p in one colour, staggered in time.
func (t *InputTracker) Click(p Point) []DelayedSplat {
	sc := t.cfg.Splats
	x, y := t.scale(p.X), t.scale(p.Y)
	color := t.NextColor()
	force := t.cfg.Fluid.SplatForce

	out := make([]DelayedSplat, 0, sc.BurstCount)
	for i := 0; i < sc.BurstCount; i++ {
		angle := t.rng.Float64() * 2 * math.Pi
		power := float64(sc.BurstPower)
		dx := math.Cos(angle) * power * (t.rng.Float64() + 0.5)
		dy := math.Sin(angle) * power * (t.rng.Float64() + 0.5)
		out = append(out, DelayedSplat{
			Splat: Splat{X: x, Y: y, DX: float32(dx) * force, DY: float32(dy) * force, Color: color},
			Delay: time.Duration(i) * t.cfg.Derived.BurstStagger,
		})
	}
	return out
}

// Touch handles a touch move. The first touch drags like a pointer; every other
// touch gets a random splat of its own.
func (t *InputTracker) Touch(touches []Point) []Splat {
	var out []Splat
	force := t.cfg.Fluid.SplatForce
	jitter := t.cfg.Splats.TouchJitter
	for i, p := range touches {
		if i == 0 {
			if sp, ok := t.drag(p); ok {
				out = append(out, sp)
			}
			continue
		}
		dx := t.rng.Float32()*2*jitter - jitter
		dy := t.rng.Float32()*2*jitter - jitter
		out = append(out, Splat{
			X:     t.scale(p.X),
			Y:     t.scale(p.Y),
			DX:    dx * force,
			DY:    dy * force,
			Color: t.NextColor(),
		})
	}
	return out
}

// TouchEnd forgets the last drag position.
func (t *InputTracker) TouchEnd() {
	t.hasLast = false
	t.lastX, t.lastY = 0, 0
}

// Last returns the last drag position in device pixels and whether one is set.
func (t *InputTracker) Last() (x, y float32, ok bool) {
	return t.lastX, t.lastY, t.hasLast
}
