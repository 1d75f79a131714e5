package cpu

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fluidbg/fluid"
)

// pixel is the per-fragment input: the texel centre and its four neighbours in
// uv space, offset by the texelSize uniform.
type pixel struct {
	uv, l, r, t, b mgl32.Vec2
}

type pixelFunc func(p pixel) mgl32.Vec4

// kernel binds a stage's uniforms and returns its per-fragment function.
type kernel func(b *bindings, kw keywords) pixelFunc

type keywords map[string]bool

// bindings resolves uniforms once per draw. The first missing or mistyped uniform
// is kept in err.
type bindings struct {
	u      fluid.Uniforms
	inputs []*texture
	err    error
}

func (b *bindings) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

func (b *bindings) tex(name string) *texture {
	v, ok := b.u[name]
	if !ok {
		b.fail("missing uniform %s", name)
		return nil
	}
	t, ok := v.(*texture)
	if !ok {
		b.fail("uniform %s: want texture, got %T", name, v)
		return nil
	}
	if t.released {
		b.fail("uniform %s: texture %d was released", name, t.id)
		return nil
	}
	b.inputs = append(b.inputs, t)
	return t
}

func (b *bindings) float(name string) float32 {
	v, ok := b.u[name]
	if !ok {
		b.fail("missing uniform %s", name)
		return 0
	}
	f, ok := v.(float32)
	if !ok {
		b.fail("uniform %s: want float32, got %T", name, v)
	}
	return f
}

func (b *bindings) vec2(name string) mgl32.Vec2 {
	v, ok := b.u[name]
	if !ok {
		b.fail("missing uniform %s", name)
		return mgl32.Vec2{}
	}
	f, ok := v.(mgl32.Vec2)
	if !ok {
		b.fail("uniform %s: want Vec2, got %T", name, v)
	}
	return f
}

func (b *bindings) vec3(name string) mgl32.Vec3 {
	v, ok := b.u[name]
	if !ok {
		b.fail("missing uniform %s", name)
		return mgl32.Vec3{}
	}
	f, ok := v.(mgl32.Vec3)
	if !ok {
		b.fail("uniform %s: want Vec3, got %T", name, v)
	}
	return f
}

var kernels = [...]kernel{
	fluid.StageCurl:             curlKernel,
	fluid.StageVorticity:        vorticityKernel,
	fluid.StageDivergence:       divergenceKernel,
	fluid.StageClear:            clearKernel,
	fluid.StagePressure:         pressureKernel,
	fluid.StageGradientSubtract: gradientSubtractKernel,
	fluid.StageAdvection:        advectionKernel,
	fluid.StageSplat:            splatKernel,
	fluid.StageBlur:             blurKernel,
	fluid.StageDisplay:          displayKernel,
}

func curlKernel(b *bindings, _ keywords) pixelFunc {
	vel := b.tex("uVelocity")
	return func(p pixel) mgl32.Vec4 {
		l := vel.sample(p.l)[1]
		r := vel.sample(p.r)[1]
		t := vel.sample(p.t)[0]
		bt := vel.sample(p.b)[0]
		vorticity := r - l - t + bt
		return mgl32.Vec4{0.5 * vorticity, 0, 0, 1}
	}
}

func vorticityKernel(b *bindings, _ keywords) pixelFunc {
	vel := b.tex("uVelocity")
	curl := b.tex("uCurl")
	strength := b.float("curl")
	dt := b.float("dt")
	return func(p pixel) mgl32.Vec4 {
		l := curl.sample(p.l)[0]
		r := curl.sample(p.r)[0]
		t := curl.sample(p.t)[0]
		bt := curl.sample(p.b)[0]
		c := curl.sample(p.uv)[0]

		force := mgl32.Vec2{abs(t) - abs(bt), abs(r) - abs(l)}.Mul(0.5)
		force = force.Mul(1 / (force.Len() + 0.0001))
		force = force.Mul(strength * c)
		force[1] = -force[1]

		v := vel.sample(p.uv)
		vx := clamp(v[0]+force[0]*dt, -1000, 1000)
		vy := clamp(v[1]+force[1]*dt, -1000, 1000)
		return mgl32.Vec4{vx, vy, 0, 1}
	}
}

func divergenceKernel(b *bindings, _ keywords) pixelFunc {
	vel := b.tex("uVelocity")
	return func(p pixel) mgl32.Vec4 {
		l := vel.sample(p.l)[0]
		r := vel.sample(p.r)[0]
		t := vel.sample(p.t)[1]
		bt := vel.sample(p.b)[1]

		c := vel.sample(p.uv)
		if p.l[0] < 0 {
			l = -c[0]
		}
		if p.r[0] > 1 {
			r = -c[0]
		}
		if p.t[1] > 1 {
			t = -c[1]
		}
		if p.b[1] < 0 {
			bt = -c[1]
		}
		return mgl32.Vec4{0.5 * (r - l + t - bt), 0, 0, 1}
	}
}

func clearKernel(b *bindings, _ keywords) pixelFunc {
	src := b.tex("uTexture")
	value := b.float("value")
	return func(p pixel) mgl32.Vec4 {
		return src.sample(p.uv).Mul(value)
	}
}

func pressureKernel(b *bindings, _ keywords) pixelFunc {
	pressure := b.tex("uPressure")
	div := b.tex("uDivergence")
	return func(p pixel) mgl32.Vec4 {
		l := pressure.sample(p.l)[0]
		r := pressure.sample(p.r)[0]
		t := pressure.sample(p.t)[0]
		bt := pressure.sample(p.b)[0]
		d := div.sample(p.uv)[0]
		return mgl32.Vec4{(l + r + bt + t - d) * 0.25, 0, 0, 1}
	}
}

func gradientSubtractKernel(b *bindings, _ keywords) pixelFunc {
	pressure := b.tex("uPressure")
	vel := b.tex("uVelocity")
	return func(p pixel) mgl32.Vec4 {
		l := pressure.sample(p.l)[0]
		r := pressure.sample(p.r)[0]
		t := pressure.sample(p.t)[0]
		bt := pressure.sample(p.b)[0]
		v := vel.sample(p.uv)
		return mgl32.Vec4{v[0] - (r - l), v[1] - (t - bt), 0, 1}
	}
}

// bilerp interpolates between the four texels around uv by sampling their centres,
// for formats the sampler cannot filter.
func bilerp(t *texture, uv, size mgl32.Vec2) mgl32.Vec4 {
	x0, fx := texelSpan(uv[0], 1/float64(size[0]))
	y0, fy := texelSpan(uv[1], 1/float64(size[1]))
	ix, iy := float32(x0), float32(y0)

	a := t.sample(mgl32.Vec2{(ix + 0.5) * size[0], (iy + 0.5) * size[1]})
	bb := t.sample(mgl32.Vec2{(ix + 1.5) * size[0], (iy + 0.5) * size[1]})
	c := t.sample(mgl32.Vec2{(ix + 0.5) * size[0], (iy + 1.5) * size[1]})
	d := t.sample(mgl32.Vec2{(ix + 1.5) * size[0], (iy + 1.5) * size[1]})
	return mix(mix(a, bb, fx), mix(c, d, fx), fy)
}

func advectionKernel(b *bindings, kw keywords) pixelFunc {
	vel := b.tex("uVelocity")
	src := b.tex("uSource")
	texel := b.vec2("texelSize")
	dt := b.float("dt")
	dissipation := b.float("dissipation")
	decay := 1 + dissipation*dt

	if kw[fluid.KeywordManualFiltering] {
		dyeTexel := b.vec2("dyeTexelSize")
		return func(p pixel) mgl32.Vec4 {
			v := bilerp(vel, p.uv, texel)
			coord := mgl32.Vec2{p.uv[0] - dt*v[0]*texel[0], p.uv[1] - dt*v[1]*texel[1]}
			return bilerp(src, coord, dyeTexel).Mul(1 / decay)
		}
	}
	return func(p pixel) mgl32.Vec4 {
		v := vel.sample(p.uv)
		coord := mgl32.Vec2{p.uv[0] - dt*v[0]*texel[0], p.uv[1] - dt*v[1]*texel[1]}
		return src.sample(coord).Mul(1 / decay)
	}
}

func splatKernel(b *bindings, _ keywords) pixelFunc {
	target := b.tex("uTarget")
	aspect := b.float("aspectRatio")
	point := b.vec2("point")
	color := b.vec3("color")
	radius := b.float("radius")
	return func(p pixel) mgl32.Vec4 {
		dx := (p.uv[0] - point[0]) * aspect
		dy := p.uv[1] - point[1]
		w := float32(math.Exp(-float64(dx*dx+dy*dy) / float64(radius)))
		base := target.sample(p.uv)
		return mgl32.Vec4{base[0] + w*color[0], base[1] + w*color[1], base[2] + w*color[2], 1}
	}
}

func blurKernel(b *bindings, _ keywords) pixelFunc {
	src := b.tex("uTexture")
	texel := b.vec2("texelSize")
	return func(p pixel) mgl32.Vec4 {
		var sum mgl32.Vec4
		for i := -2; i <= 2; i++ {
			for j := -2; j <= 2; j++ {
				uv := mgl32.Vec2{p.uv[0] + float32(i)*texel[0], p.uv[1] + float32(j)*texel[1]}
				sum = sum.Add(src.sample(uv))
			}
		}
		return mgl32.Vec4{sum[0] / 25, sum[1] / 25, sum[2] / 25, 1}
	}
}

func displayKernel(b *bindings, kw keywords) pixelFunc {
	src := b.tex("uTexture")
	texel := b.vec2("texelSize")
	shading := kw[fluid.KeywordShading]
	return func(p pixel) mgl32.Vec4 {
		c := src.sample(p.uv).Vec3()
		if shading {
			lc := src.sample(p.l).Vec3()
			rc := src.sample(p.r).Vec3()
			tc := src.sample(p.t).Vec3()
			bc := src.sample(p.b).Vec3()

			dx := rc.Len() - lc.Len()
			dy := tc.Len() - bc.Len()
			n := mgl32.Vec3{dx, dy, texel.Len()}.Normalize()
			diffuse := clamp(n.Dot(mgl32.Vec3{0, 0, 1})+0.7, 0.7, 1)
			c = c.Mul(diffuse)
		}
		a := max(c[0], c[1], c[2])
		return mgl32.Vec4{c[0], c[1], c[2], a}
	}
}

func abs(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
