package cpu

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fluidbg/fluid"
)

// texture stores every texel as four float32 channels regardless of format.
// Channels the format lacks read back as zero, with alpha as one.
type texture struct {
	id       int
	w, h     int
	format   fluid.Format
	filter   fluid.Filter
	data     []float32
	released bool
}

func newTexture(id, w, h int, f fluid.Format, filter fluid.Filter) *texture {
	t := &texture{
		id:     id,
		w:      w,
		h:      h,
		format: f,
		filter: filter,
		data:   make([]float32, 4*w*h),
	}
	if f.Channels < 4 {
		for i := 3; i < len(t.data); i += 4 {
			t.data[i] = 1
		}
	}
	return t
}

func (t *texture) Width() int           { return t.w }
func (t *texture) Height() int          { return t.h }
func (t *texture) Format() fluid.Format { return t.format }

// store writes v at texel (x, y) after dropping missing channels and rounding to
// the format's precision.
func (t *texture) store(x, y int, v mgl32.Vec4) {
	i := 4 * (y*t.w + x)
	for c := 0; c < 4; c++ {
		switch {
		case c < t.format.Channels:
			if t.format.Precision == fluid.PrecisionHalf {
				v[c] = roundHalf(v[c])
			}
		case c == 3:
			v[c] = 1
		default:
			v[c] = 0
		}
	}
	copy(t.data[i:i+4], v[:])
}

func (t *texture) texel(x, y int) mgl32.Vec4 {
	x = clampInt(x, 0, t.w-1)
	y = clampInt(y, 0, t.h-1)
	i := 4 * (y*t.w + x)
	return mgl32.Vec4{t.data[i], t.data[i+1], t.data[i+2], t.data[i+3]}
}

// sample reads the texture at uv with clamp-to-edge addressing and the texture's
// own filter.
func (t *texture) sample(uv mgl32.Vec2) mgl32.Vec4 {
	if t.filter == fluid.FilterNearest {
		x := int(math.Floor(float64(uv[0] * float32(t.w))))
		y := int(math.Floor(float64(uv[1] * float32(t.h))))
		return t.texel(x, y)
	}

	x0, fx := texelSpan(uv[0], float64(t.w))
	y0, fy := texelSpan(uv[1], float64(t.h))
	if fx == 0 && fy == 0 {
		return t.texel(x0, y0)
	}

	a := t.texel(x0, y0)
	b := t.texel(x0+1, y0)
	c := t.texel(x0, y0+1)
	d := t.texel(x0+1, y0+1)
	return mix(mix(a, b, fx), mix(c, d, fx), fy)
}

// centreSnap is how close, in texels, a sample must be to a texel centre to read
// that texel alone. It absorbs the float32 rounding of uv = (x+0.5)/n.
const centreSnap = 1e-4

// texelSpan maps a uv coordinate on an n-texel axis to the lower texel of the
// bilinear footprint and the weight of the upper one.
func texelSpan(uv float32, n float64) (int, float32) {
	s := float64(uv)*n - 0.5
	i := math.Floor(s)
	f := s - i
	switch {
	case f < centreSnap:
		f = 0
	case f > 1-centreSnap:
		i++
		f = 0
	}
	return int(i), float32(f)
}

func mix(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
