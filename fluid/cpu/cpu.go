// Package cpu is a software fluid.Backend. Each stage program is a Go function
// evaluated once per target texel, mirroring the GPU shaders, so the simulation
// can run headless and be tested without a graphics context.
package cpu

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fluidbg/fluid"
)

// ErrFeedbackLoop is returned when a draw's target is also bound as an input.
var ErrFeedbackLoop = errors.New("render target is also bound as an input")

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("cpu backend closed")

// parallelThreshold is the minimum texel count for a draw to be split across workers.
const parallelThreshold = 4096

// Options configures a Backend. The zero value supports every format.
type Options struct {
	RenderTarget    func(fluid.Format) bool
	LinearFiltering func(fluid.Format) bool
	// Fail, when set, is consulted before every draw with the stage and how many
	// draws of it have succeeded. A non-nil result fails the draw.
	Fail func(stage fluid.Stage, n int) error
	// Workers caps draw parallelism. Zero uses GOMAXPROCS.
	Workers int
}

type program struct {
	stage fluid.Stage
	kw    keywords
	key   string
}

func (p *program) Stage() fluid.Stage { return p.stage }

// Backend is the software implementation of fluid.Backend.
type Backend struct {
	opts     Options
	nextID   int
	live     map[int]*texture
	programs map[string]*program
	surface  *texture
	draws    [fluid.StageDisplay + 1]int
	closed   bool
}

// New creates a backend with the given options.
func New(opts Options) *Backend {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Backend{
		opts:     opts,
		live:     make(map[int]*texture),
		programs: make(map[string]*program),
	}
}

// SupportsRenderTarget implements fluid.Capabilities.
func (b *Backend) SupportsRenderTarget(f fluid.Format) bool {
	if b.opts.RenderTarget == nil {
		return true
	}
	return b.opts.RenderTarget(f)
}

// SupportsLinearFiltering implements fluid.Capabilities.
func (b *Backend) SupportsLinearFiltering(f fluid.Format) bool {
	if b.opts.LinearFiltering == nil {
		return true
	}
	return b.opts.LinearFiltering(f)
}

// NewTexture allocates a zeroed texture.
func (b *Backend) NewTexture(w, h int, f fluid.Format, filter fluid.Filter) (fluid.Texture, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", w, h)
	}
	if !b.SupportsRenderTarget(f) {
		return nil, fmt.Errorf("format %s: %w", f, fluid.ErrUnsupportedFormat)
	}
	b.nextID++
	t := newTexture(b.nextID, w, h, f, filter)
	b.live[t.id] = t
	return t, nil
}

// ReleaseTexture frees a texture. Releasing twice or releasing a foreign texture
// is a no-op.
func (b *Backend) ReleaseTexture(ft fluid.Texture) {
	t, ok := ft.(*texture)
	if !ok || t.released {
		return
	}
	t.released = true
	t.data = nil
	delete(b.live, t.id)
}

// Live returns the number of textures allocated and not yet released, excluding
// the surface.
func (b *Backend) Live() int { return len(b.live) }

// Program returns the cached program for a stage and keyword set.
func (b *Backend) Program(stage fluid.Stage, kws ...string) (fluid.Program, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if stage < 0 || int(stage) >= len(kernels) {
		return nil, fmt.Errorf("unknown stage %d", int(stage))
	}
	sorted := slices.Clone(kws)
	sort.Strings(sorted)
	key := stage.String() + "|" + strings.Join(sorted, ",")
	if p, ok := b.programs[key]; ok {
		return p, nil
	}
	kw := make(keywords, len(kws))
	for _, k := range kws {
		kw[k] = true
	}
	p := &program{stage: stage, kw: kw, key: key}
	b.programs[key] = p
	return p, nil
}

// Draw evaluates p for every texel of target.
func (b *Backend) Draw(fp fluid.Program, u fluid.Uniforms, ft fluid.Texture) error {
	if b.closed {
		return ErrClosed
	}
	p, ok := fp.(*program)
	if !ok {
		return fmt.Errorf("foreign program %T", fp)
	}
	target, ok := ft.(*texture)
	if !ok {
		return fmt.Errorf("foreign texture %T", ft)
	}
	if target.released {
		return fmt.Errorf("draw into released texture %d", target.id)
	}
	if b.opts.Fail != nil {
		if err := b.opts.Fail(p.stage, b.draws[p.stage]); err != nil {
			return fmt.Errorf("%s: %w", p.stage, err)
		}
	}

	if p.stage == fluid.StageClear {
		if ok, err := b.clearFast(u, target); ok || err != nil {
			b.draws[p.stage]++
			return err
		}
	}

	fn, err := b.bind(p, u, target)
	if err != nil {
		return err
	}
	b.run(fn, u, target, func(x, y int, v mgl32.Vec4) { target.store(x, y, v) })
	b.draws[p.stage]++
	return nil
}

func (b *Backend) bind(p *program, u fluid.Uniforms, target *texture) (pixelFunc, error) {
	bd := &bindings{u: u}
	fn := kernels[p.stage](bd, p.kw)
	if bd.err != nil {
		return nil, fmt.Errorf("%s: %w", p.stage, bd.err)
	}
	for _, in := range bd.inputs {
		if in == target {
			return nil, fmt.Errorf("%s: texture %d: %w", p.stage, target.id, ErrFeedbackLoop)
		}
	}
	return fn, nil
}

// clearFast scales a same-sized source into target with BLAS instead of sampling.
func (b *Backend) clearFast(u fluid.Uniforms, target *texture) (bool, error) {
	src, ok := u["uTexture"].(*texture)
	if !ok || src.released || src.w != target.w || src.h != target.h || src.format != target.format {
		return false, nil
	}
	value, ok := u["value"].(float32)
	if !ok {
		return false, nil
	}
	if src == target {
		return true, fmt.Errorf("%s: texture %d: %w", fluid.StageClear, target.id, ErrFeedbackLoop)
	}

	n := len(target.data)
	blas32.Copy(blas32.Vector{N: n, Inc: 1, Data: src.data}, blas32.Vector{N: n, Inc: 1, Data: target.data})
	blas32.Scal(value, blas32.Vector{N: n, Inc: 1, Data: target.data})

	if target.format.Channels < 4 || target.format.Precision == fluid.PrecisionHalf {
		for y := 0; y < target.h; y++ {
			for x := 0; x < target.w; x++ {
				target.store(x, y, target.texel(x, y))
			}
		}
	}
	return true, nil
}

// run evaluates fn over target's grid, splitting rows across workers for large
// targets.
func (b *Backend) run(fn pixelFunc, u fluid.Uniforms, target *texture, out func(x, y int, v mgl32.Vec4)) {
	ts, _ := u["texelSize"].(mgl32.Vec2)
	w, h := target.w, target.h

	rows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				uv := mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
				out(x, y, fn(pixel{
					uv: uv,
					l:  mgl32.Vec2{uv[0] - ts[0], uv[1]},
					r:  mgl32.Vec2{uv[0] + ts[0], uv[1]},
					t:  mgl32.Vec2{uv[0], uv[1] + ts[1]},
					b:  mgl32.Vec2{uv[0], uv[1] - ts[1]},
				}))
			}
		}
	}

	workers := b.opts.Workers
	if w*h < parallelThreshold || workers <= 1 {
		rows(0, h)
		return
	}
	band := (h + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			rows(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}

// SetSurfaceSize resizes the off-screen visible surface, clearing it.
func (b *Backend) SetSurfaceSize(w, h int) {
	if b.surface != nil && b.surface.w == w && b.surface.h == h {
		return
	}
	b.surface = newTexture(0, w, h, fluid.Format{Channels: 4, Precision: fluid.PrecisionFloat}, fluid.FilterNearest)
}

// Surface returns the visible surface, or nil before SetSurfaceSize.
func (b *Backend) Surface() fluid.Texture {
	if b.surface == nil {
		return nil
	}
	return b.surface
}

// Present evaluates p onto the surface with the given blending.
func (b *Backend) Present(fp fluid.Program, u fluid.Uniforms, blend fluid.Blend) error {
	if b.closed {
		return ErrClosed
	}
	if b.surface == nil {
		return errors.New("present before surface size was set")
	}
	p, ok := fp.(*program)
	if !ok {
		return fmt.Errorf("foreign program %T", fp)
	}
	fn, err := b.bind(p, u, b.surface)
	if err != nil {
		return err
	}

	s := b.surface
	b.run(fn, u, s, func(x, y int, v mgl32.Vec4) {
		if blend == fluid.BlendPremultiplied {
			dst := s.texel(x, y)
			v = v.Add(dst.Mul(1 - v[3]))
		}
		s.store(x, y, v)
	})
	b.draws[p.stage]++
	return nil
}

// ClearSurface sets every surface texel to c.
func (b *Backend) ClearSurface(c mgl32.Vec4) {
	if b.surface == nil {
		return
	}
	for y := 0; y < b.surface.h; y++ {
		for x := 0; x < b.surface.w; x++ {
			b.surface.store(x, y, c)
		}
	}
}

// ReadPixels copies a texture's RGBA texels, bottom row first.
func (b *Backend) ReadPixels(ft fluid.Texture) ([]float32, error) {
	t, ok := ft.(*texture)
	if !ok {
		return nil, fmt.Errorf("foreign texture %T", ft)
	}
	if t.released {
		return nil, fmt.Errorf("read of released texture %d", t.id)
	}
	return slices.Clone(t.data), nil
}

// Draws returns how many passes of a stage have run.
func (b *Backend) Draws(stage fluid.Stage) int {
	if stage < 0 || int(stage) >= len(b.draws) {
		return 0
	}
	return b.draws[stage]
}

// Close releases every texture and program.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	for _, t := range b.live {
		b.ReleaseTexture(t)
	}
	b.programs = nil
	b.surface = nil
	b.closed = true
	return nil
}
