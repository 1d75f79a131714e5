package fluid

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Field is a single 2D grid stored in one texture.
type Field struct {
	tex       Texture
	width     int
	height    int
	texelSize mgl32.Vec2
}

func newField(b Backend, w, h int, f Format, filter Filter) (*Field, error) {
	tex, err := b.NewTexture(w, h, f, filter)
	if err != nil {
		return nil, fmt.Errorf("allocating %dx%d %s texture: %w", w, h, f, err)
	}
	return &Field{
		tex:       tex,
		width:     w,
		height:    h,
		texelSize: mgl32.Vec2{1 / float32(w), 1 / float32(h)},
	}, nil
}

// Texture returns the backing texture.
func (f *Field) Texture() Texture { return f.tex }

// Width returns the grid width in texels.
func (f *Field) Width() int { return f.width }

// Height returns the grid height in texels.
func (f *Field) Height() int { return f.height }

// TexelSize returns (1/width, 1/height).
func (f *Field) TexelSize() mgl32.Vec2 { return f.texelSize }

func (f *Field) release(b Backend) {
	if f != nil && f.tex != nil {
		b.ReleaseTexture(f.tex)
		f.tex = nil
	}
}

// DoubleField is a read/write pair of Fields. Passes sample Read and render into
// Write; Swap exchanges the roles and must follow every such pass.
type DoubleField struct {
	read  *Field
	write *Field
	swaps int
}

func newDoubleField(b Backend, w, h int, f Format, filter Filter) (*DoubleField, error) {
	a, err := newField(b, w, h, f, filter)
	if err != nil {
		return nil, err
	}
	c, err := newField(b, w, h, f, filter)
	if err != nil {
		a.release(b)
		return nil, err
	}
	return &DoubleField{read: a, write: c}, nil
}

// Read returns the current half.
func (d *DoubleField) Read() *Field { return d.read }

// Write returns the render target for the next pass.
func (d *DoubleField) Write() *Field { return d.write }

// Swap exchanges read and write.
func (d *DoubleField) Swap() {
	d.read, d.write = d.write, d.read
	d.swaps++
}

// Swaps returns how many times the pair has been swapped.
func (d *DoubleField) Swaps() int { return d.swaps }

// Width returns the grid width in texels.
func (d *DoubleField) Width() int { return d.read.width }

// Height returns the grid height in texels.
func (d *DoubleField) Height() int { return d.read.height }

// TexelSize returns (1/width, 1/height).
func (d *DoubleField) TexelSize() mgl32.Vec2 { return d.read.texelSize }

func (d *DoubleField) release(b Backend) {
	if d == nil {
		return
	}
	d.read.release(b)
	d.write.release(b)
}

// Resolution returns the grid size for a base resolution on a surface of the given
// pixel size. The shorter side gets base, the longer side base scaled by the aspect
// ratio, so texels stay square.
func Resolution(base, surfaceW, surfaceH int) (w, h int) {
	if surfaceW <= 0 || surfaceH <= 0 {
		return base, base
	}
	aspect := float64(surfaceW) / float64(surfaceH)
	if aspect < 1 {
		aspect = 1 / aspect
	}
	lo := int(math.Round(float64(base)))
	hi := int(math.Round(float64(base) * aspect))
	if surfaceW > surfaceH {
		return hi, lo
	}
	return lo, hi
}

// Fields is the complete set of simulation textures.
type Fields struct {
	Velocity   *DoubleField
	Dye        *DoubleField
	Pressure   *DoubleField
	Divergence *Field
	Curl       *Field
	Blur       *Field
}

// allocateFields creates every field for the given surface size. On failure the
// fields created so far are released.
func allocateFields(b Backend, fs FormatSet, simBase, dyeBase, surfaceW, surfaceH int) (*Fields, error) {
	simW, simH := Resolution(simBase, surfaceW, surfaceH)
	dyeW, dyeH := Resolution(dyeBase, surfaceW, surfaceH)
	filter := fs.Filter()

	f := &Fields{}
	var err error
	fail := func(what string, err error) (*Fields, error) {
		f.release(b)
		return nil, fmt.Errorf("%s field: %w", what, err)
	}

	if f.Dye, err = newDoubleField(b, dyeW, dyeH, fs.RGBA, filter); err != nil {
		return fail("dye", err)
	}
	if f.Velocity, err = newDoubleField(b, simW, simH, fs.RG, filter); err != nil {
		return fail("velocity", err)
	}
	if f.Divergence, err = newField(b, simW, simH, fs.R, FilterNearest); err != nil {
		return fail("divergence", err)
	}
	if f.Curl, err = newField(b, simW, simH, fs.R, FilterNearest); err != nil {
		return fail("curl", err)
	}
	if f.Pressure, err = newDoubleField(b, simW, simH, fs.R, FilterNearest); err != nil {
		return fail("pressure", err)
	}
	if f.Blur, err = newField(b, dyeW, dyeH, fs.RGBA, filter); err != nil {
		return fail("blur", err)
	}
	return f, nil
}

func (f *Fields) release(b Backend) {
	if f == nil {
		return
	}
	f.Dye.release(b)
	f.Velocity.release(b)
	f.Pressure.release(b)
	f.Divergence.release(b)
	f.Curl.release(b)
	f.Blur.release(b)
}
