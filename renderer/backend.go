// Package renderer is the raylib GPU backend for the fluid simulation.
//
// Every field lives in a float render texture attached to its own framebuffer.
// Stage programs are GLSL 330 fragment shaders run over a full-target rectangle;
// raylib's default vertex shader is used and coordinates come from gl_FragCoord.
package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/fluidbg/fluid"
)

var (
	// ErrFeedbackLoop is returned when a pass samples the texture it renders into.
	ErrFeedbackLoop = errors.New("renderer: target is bound as an input")
	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("renderer: backend closed")
)

// probeSize is the edge length of the throwaway target used to test formats.
const probeSize = 4

// Options configures a Backend.
type Options struct {
	// Offscreen makes Present draw into a backend-owned float texture instead of
	// the current framebuffer. Used for headless capture.
	Offscreen bool
}

type texture struct {
	rt       rl.RenderTexture2D
	w, h     int
	format   fluid.Format
	released bool
}

func (t *texture) Width() int            { return t.w }
func (t *texture) Height() int           { return t.h }
func (t *texture) Format() fluid.Format  { return t.format }
func (t *texture) Texture() rl.Texture2D { return t.rt.Texture }

type program struct {
	stage  fluid.Stage
	shader rl.Shader
	locs   map[string]int32
}

func (p *program) Stage() fluid.Stage { return p.stage }

func (p *program) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := rl.GetShaderLocation(p.shader, name)
	p.locs[name] = l
	return l
}

// Backend implements fluid.Backend on raylib. It must be created after
// rl.InitWindow and used from the thread that owns the GL context.
type Backend struct {
	opts     Options
	programs map[string]*program
	textures map[*texture]struct{}
	probed   map[fluid.Format]bool

	surfaceW, surfaceH int
	surface            *texture

	closed bool
}

// New creates a backend on the current raylib context.
func New(opts Options) *Backend {
	return &Backend{
		opts:     opts,
		programs: make(map[string]*program),
		textures: make(map[*texture]struct{}),
		probed:   make(map[fluid.Format]bool),
	}
}

// pixelFormat maps a field format to a raylib pixel format. raylib has no 16-bit
// float or two-channel float formats, so those report false.
func pixelFormat(f fluid.Format) (rl.PixelFormat, bool) {
	if f.Precision != fluid.PrecisionFloat {
		return 0, false
	}
	switch f.Channels {
	case 1:
		return rl.UncompressedR32, true
	case 3:
		return rl.UncompressedR32g32b32, true
	case 4:
		return rl.UncompressedR32g32b32a32, true
	}
	return 0, false
}

// SupportsRenderTarget allocates a small target of the format and checks that
// its framebuffer is complete. Results are cached per format.
func (b *Backend) SupportsRenderTarget(f fluid.Format) bool {
	pf, ok := pixelFormat(f)
	if !ok {
		return false
	}
	if ok, seen := b.probed[f]; seen {
		return ok
	}
	rt, err := newTarget(probeSize, probeSize, pf, fluid.FilterNearest)
	if err == nil {
		rl.UnloadRenderTexture(rt)
	}
	b.probed[f] = err == nil
	slog.Debug("render target probe", "format", f.String(), "supported", err == nil)
	return err == nil
}

// SupportsLinearFiltering reports true for every renderable format: desktop GL 3.3
// filters 32-bit float textures.
func (b *Backend) SupportsLinearFiltering(f fluid.Format) bool {
	return b.SupportsRenderTarget(f)
}

func newTarget(w, h int, pf rl.PixelFormat, filter fluid.Filter) (rl.RenderTexture2D, error) {
	img := rl.GenImageColor(w, h, rl.Blank)
	rl.ImageFormat(img, pf)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if tex.ID == 0 {
		return rl.RenderTexture2D{}, fmt.Errorf("loading %dx%d texture (format %d)", w, h, pf)
	}

	rl.SetTextureWrap(tex, rl.WrapClamp)
	if filter == fluid.FilterLinear {
		rl.SetTextureFilter(tex, rl.FilterBilinear)
	} else {
		rl.SetTextureFilter(tex, rl.FilterPoint)
	}

	fbo := rl.LoadFramebuffer()
	if fbo == 0 {
		rl.UnloadTexture(tex)
		return rl.RenderTexture2D{}, errors.New("creating framebuffer")
	}
	rl.FramebufferAttach(fbo, tex.ID, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
	rt := rl.RenderTexture2D{ID: fbo, Texture: tex}
	if !rl.FramebufferComplete(fbo) {
		rl.UnloadRenderTexture(rt)
		return rl.RenderTexture2D{}, fmt.Errorf("framebuffer incomplete for format %d", pf)
	}
	return rt, nil
}

// NewTexture allocates a zeroed float render texture.
func (b *Backend) NewTexture(w, h int, f fluid.Format, filter fluid.Filter) (fluid.Texture, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", w, h)
	}
	pf, ok := pixelFormat(f)
	if !ok {
		return nil, fmt.Errorf("%s: %w", f, fluid.ErrUnsupportedFormat)
	}
	rt, err := newTarget(w, h, pf, filter)
	if err != nil {
		return nil, err
	}
	t := &texture{rt: rt, w: w, h: h, format: f}
	b.textures[t] = struct{}{}
	return t, nil
}

// ReleaseTexture frees a texture and its framebuffer. Releasing twice is a no-op.
func (b *Backend) ReleaseTexture(ft fluid.Texture) {
	t, ok := ft.(*texture)
	if !ok || t.released {
		return
	}
	t.released = true
	delete(b.textures, t)
	rl.UnloadRenderTexture(t.rt)
}

// Live returns the number of unreleased textures, excluding the offscreen surface.
func (b *Backend) Live() int {
	n := len(b.textures)
	if b.surface != nil {
		n--
	}
	return n
}

// Program compiles the stage shader with the given keywords, or returns the cached one.
func (b *Backend) Program(stage fluid.Stage, keywords ...string) (fluid.Program, error) {
	if b.closed {
		return nil, ErrClosed
	}
	key := programKey(stage, keywords)
	if p, ok := b.programs[key]; ok {
		return p, nil
	}
	src, err := fragmentSource(stage, keywords)
	if err != nil {
		return nil, err
	}
	shader := rl.LoadShaderFromMemory("", src)
	if !rl.IsShaderValid(shader) || shader.ID == rl.GetShaderIdDefault() {
		return nil, fmt.Errorf("compiling %s shader failed", stage)
	}
	p := &program{stage: stage, shader: shader, locs: make(map[string]int32)}
	b.programs[key] = p
	return p, nil
}

// Draw renders a full-target pass with blending disabled.
func (b *Backend) Draw(fp fluid.Program, u fluid.Uniforms, target fluid.Texture) error {
	if b.closed {
		return ErrClosed
	}
	p, ok := fp.(*program)
	if !ok {
		return fmt.Errorf("foreign program %T", fp)
	}
	dst, ok := target.(*texture)
	if !ok || dst.released {
		return fmt.Errorf("%s pass: invalid target", p.stage)
	}
	apply, err := b.bind(p, u, dst)
	if err != nil {
		return fmt.Errorf("%s pass: %w", p.stage, err)
	}

	rl.BeginTextureMode(dst.rt)
	b.pass(p, apply, dst.w, dst.h, fluid.BlendNone)
	rl.EndTextureMode()
	return nil
}

// SetSurfaceSize records the visible surface size. With Options.Offscreen the
// surface texture is reallocated.
func (b *Backend) SetSurfaceSize(w, h int) {
	b.surfaceW, b.surfaceH = w, h
	if !b.opts.Offscreen || b.closed {
		return
	}
	if b.surface != nil {
		if b.surface.w == w && b.surface.h == h {
			return
		}
		b.ReleaseTexture(b.surface)
		b.surface = nil
	}
	st, err := b.NewTexture(w, h, fluid.Format{Channels: 4, Precision: fluid.PrecisionFloat}, fluid.FilterNearest)
	if err != nil {
		slog.Error("allocating offscreen surface", "error", err, "w", w, "h", h)
		return
	}
	b.surface = st.(*texture)
}

// Surface returns the offscreen surface, or nil when presenting to the screen.
func (b *Backend) Surface() fluid.Texture {
	if b.surface == nil {
		return nil
	}
	return b.surface
}

// ClearSurface fills the offscreen surface with c.
func (b *Backend) ClearSurface(c mgl32.Vec4) {
	if b.surface == nil {
		return
	}
	rl.BeginTextureMode(b.surface.rt)
	rl.ClearBackground(rl.ColorFromNormalized(rl.NewVector4(c[0], c[1], c[2], c[3])))
	rl.EndTextureMode()
}

// Present renders a full-surface pass. On screen it draws into whatever
// framebuffer is bound, so callers run it between BeginDrawing and EndDrawing.
func (b *Backend) Present(fp fluid.Program, u fluid.Uniforms, blend fluid.Blend) error {
	if b.closed {
		return ErrClosed
	}
	p, ok := fp.(*program)
	if !ok {
		return fmt.Errorf("foreign program %T", fp)
	}
	apply, err := b.bind(p, u, nil)
	if err != nil {
		return fmt.Errorf("%s pass: %w", p.stage, err)
	}

	if b.opts.Offscreen {
		if b.surface == nil {
			return errors.New("present: no offscreen surface")
		}
		rl.BeginTextureMode(b.surface.rt)
		b.pass(p, apply, b.surface.w, b.surface.h, blend)
		rl.EndTextureMode()
		return nil
	}

	w, h := b.surfaceW, b.surfaceH
	if w <= 0 || h <= 0 {
		w, h = rl.GetRenderWidth(), rl.GetRenderHeight()
	}
	b.pass(p, apply, w, h, blend)
	return nil
}

// pass draws one full-target rectangle. Samplers are bound after the blend and
// shader modes are entered because raylib resets texture slots on every flush.
func (b *Backend) pass(p *program, apply []func(), w, h int, blend fluid.Blend) {
	if blend == fluid.BlendPremultiplied {
		rl.BeginBlendMode(rl.BlendAlphaPremultiply)
	} else {
		rl.SetBlendFactors(rl.One, rl.Zero, rl.FuncAdd)
		rl.BeginBlendMode(rl.BlendCustom)
	}
	rl.BeginShaderMode(p.shader)

	rl.SetShaderValue(p.shader, p.loc("targetSize"), []float32{float32(w), float32(h)}, rl.ShaderUniformVec2)
	for _, fn := range apply {
		fn()
	}
	rl.DrawRectangle(0, 0, int32(w), int32(h), rl.White)

	rl.EndShaderMode()
	rl.EndBlendMode()
}

// bind validates the uniforms and returns the calls that upload them.
func (b *Backend) bind(p *program, u fluid.Uniforms, target *texture) ([]func(), error) {
	apply := make([]func(), 0, len(u))
	for name, v := range u {
		loc := p.loc(name)
		switch val := v.(type) {
		case float32:
			apply = append(apply, func() {
				rl.SetShaderValue(p.shader, loc, []float32{val}, rl.ShaderUniformFloat)
			})
		case mgl32.Vec2:
			apply = append(apply, func() {
				rl.SetShaderValue(p.shader, loc, val[:], rl.ShaderUniformVec2)
			})
		case mgl32.Vec3:
			apply = append(apply, func() {
				rl.SetShaderValue(p.shader, loc, val[:], rl.ShaderUniformVec3)
			})
		case fluid.Texture:
			t, ok := val.(*texture)
			if !ok {
				return nil, fmt.Errorf("uniform %s: foreign texture %T", name, val)
			}
			if t.released {
				return nil, fmt.Errorf("uniform %s: texture released", name)
			}
			if t == target {
				return nil, fmt.Errorf("uniform %s: %w", name, ErrFeedbackLoop)
			}
			apply = append(apply, func() {
				rl.SetShaderValueTexture(p.shader, loc, t.rt.Texture)
			})
		default:
			return nil, fmt.Errorf("uniform %s: unsupported type %T", name, v)
		}
	}
	return apply, nil
}

// ReadPixels copies a texture back as RGBA float texels, bottom row first.
// Channels missing from the format read as 0, alpha as 1.
func (b *Backend) ReadPixels(ft fluid.Texture) ([]float32, error) {
	t, ok := ft.(*texture)
	if !ok || t.released {
		return nil, errors.New("read pixels: invalid texture")
	}
	img := rl.LoadImageFromTexture(t.rt.Texture)
	if img == nil || img.Data == nil {
		return nil, errors.New("read pixels: readback failed")
	}
	defer rl.UnloadImage(img)

	ch := t.format.Channels
	n := t.w * t.h
	src := unsafe.Slice((*float32)(img.Data), n*ch)
	out := make([]float32, n*4)
	for i := 0; i < n; i++ {
		px := out[i*4 : i*4+4]
		px[3] = 1
		copy(px, src[i*ch:i*ch+ch])
	}
	return out, nil
}

// Close unloads every program and texture the backend still owns.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	for _, p := range b.programs {
		rl.UnloadShader(p.shader)
	}
	b.programs = nil
	for t := range b.textures {
		t.released = true
		rl.UnloadRenderTexture(t.rt)
	}
	b.textures = nil
	b.surface = nil
	return nil
}
