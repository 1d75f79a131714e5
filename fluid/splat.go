package fluid

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fluidbg/config"
)

// Splat is a Gaussian impulse of velocity and dye. X and Y are in device pixels
// with the origin at the top left; DX and DY are the velocity impulse in
// screen-space (y grows downward).
type Splat struct {
	X, Y   float32
	DX, DY float32
	Color  config.Color
}

// pickColor returns a palette entry chosen uniformly.
func pickColor(palette []config.Color, rng *rand.Rand) config.Color {
	if len(palette) == 0 {
		return config.Color{R: 1, G: 1, B: 1}
	}
	return palette[rng.Intn(len(palette))]
}

// correctRadius stretches the splat radius on landscape surfaces so splats stay
// round after the aspect correction in the splat program.
func correctRadius(r, aspect float32) float32 {
	if aspect > 1 {
		r *= aspect
	}
	return r
}

// Splat adds sp to the velocity field and then to the dye field.
func (s *Simulation) Splat(sp Splat) error {
	if err := s.ready(); err != nil {
		return err
	}
	aspect := float32(s.width) / float32(s.height)
	point := mgl32.Vec2{sp.X / float32(s.width), 1 - sp.Y/float32(s.height)}
	radius := correctRadius(s.cfg.Fluid.SplatRadius/100, aspect)

	v := s.fields.Velocity
	if err := s.drawSwap(StageSplat, Uniforms{
		"uTarget":     v.Read().Texture(),
		"aspectRatio": aspect,
		"point":       point,
		"color":       mgl32.Vec3{sp.DX, -sp.DY, 1},
		"radius":      radius,
	}, v); err != nil {
		return err
	}

	d := s.fields.Dye
	return s.drawSwap(StageSplat, Uniforms{
		"uTarget":     d.Read().Texture(),
		"aspectRatio": aspect,
		"point":       point,
		"color":       mgl32.Vec3{sp.Color.R, sp.Color.G, sp.Color.B},
		"radius":      radius,
	}, d)
}

// SplatRadius returns the Gaussian falloff radius in uv units for the current
// surface, as used by the splat program.
func (s *Simulation) SplatRadius() float32 {
	return correctRadius(s.cfg.Fluid.SplatRadius/100, float32(s.width)/float32(s.height))
}
