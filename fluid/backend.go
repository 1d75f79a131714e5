// Package fluid implements a real-time stable-fluids background effect.
//
// The numerical pipeline (stage order, parameters, formulas) lives here and is
// independent of any graphics binding. A Backend supplies textures, compiled
// stage programs and full-screen draws; see fluid/cpu for a reference backend
// and renderer for the raylib GPU backend.
package fluid

import "fmt"

// Precision is the per-channel bit depth of a field texture.
type Precision int

const (
	PrecisionHalf Precision = iota
	PrecisionFloat
)

func (p Precision) String() string {
	if p == PrecisionFloat {
		return "float"
	}
	return "half"
}

// ParsePrecision maps a config string to a Precision. Unknown values map to half.
func ParsePrecision(s string) Precision {
	if s == "float" {
		return PrecisionFloat
	}
	return PrecisionHalf
}

// Format describes the numeric layout of a texture.
type Format struct {
	Channels  int
	Precision Precision
}

func (f Format) String() string {
	names := [...]string{"", "R", "RG", "RGB", "RGBA"}
	name := "?"
	if f.Channels > 0 && f.Channels < len(names) {
		name = names[f.Channels]
	}
	if f.Precision == PrecisionFloat {
		return name + "32F"
	}
	return name + "16F"
}

// Filter selects how a texture is sampled between texel centers.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Blend selects how Present composites onto the visible surface.
type Blend int

const (
	// BlendNone replaces the surface contents.
	BlendNone Blend = iota
	// BlendPremultiplied composites src + dst*(1-src.a).
	BlendPremultiplied
)

// Stage identifies one fixed program in the pipeline.
type Stage int

const (
	StageCurl Stage = iota
	StageVorticity
	StageDivergence
	StageClear
	StagePressure
	StageGradientSubtract
	StageAdvection
	StageSplat
	StageBlur
	StageDisplay
	numStages
)

var stageNames = [numStages]string{
	"curl",
	"vorticity",
	"divergence",
	"clear",
	"pressure",
	"gradient_subtract",
	"advection",
	"splat",
	"blur",
	"display",
}

func (s Stage) String() string {
	if s < 0 || s >= numStages {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Stages returns every pipeline stage in declaration order.
func Stages() []Stage {
	out := make([]Stage, numStages)
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}

// Program keywords, prepended as preprocessor defines.
const (
	KeywordManualFiltering = "MANUAL_FILTERING"
	KeywordShading         = "SHADING"
)

// Texture is a backend-owned 2D texture.
type Texture interface {
	Width() int
	Height() int
	Format() Format
}

// Program is a compiled stage program.
type Program interface {
	Stage() Stage
}

// Uniforms maps uniform names to values. Supported value types are float32,
// mgl32.Vec2, mgl32.Vec3 and Texture.
type Uniforms map[string]any

// Capabilities reports what texture formats the host can render into and filter.
type Capabilities interface {
	SupportsRenderTarget(f Format) bool
	SupportsLinearFiltering(f Format) bool
}

// Backend is the graphics binding the simulation runs on.
type Backend interface {
	Capabilities

	// NewTexture allocates a w x h texture cleared to zero.
	NewTexture(w, h int, f Format, filter Filter) (Texture, error)
	// ReleaseTexture frees a texture. Releasing twice is a no-op.
	ReleaseTexture(t Texture)
	// Program compiles (or returns the cached) program for a stage and keyword set.
	Program(stage Stage, keywords ...string) (Program, error)
	// Draw runs a full-screen pass of p into target with blending disabled.
	// Implementations reject passes whose target is also bound as an input.
	Draw(p Program, u Uniforms, target Texture) error
	// Present runs a full-screen pass of p onto the visible surface.
	Present(p Program, u Uniforms, blend Blend) error
	// Close releases programs and any backend-held resources.
	Close() error
}

// Reader is implemented by backends that can read texture contents back to the CPU.
// ReadPixels returns RGBA texels, row-major, bottom row first.
type Reader interface {
	ReadPixels(t Texture) ([]float32, error)
}

// SurfaceSizer is implemented by backends that own an off-screen visible surface
// and need to follow the simulation's surface size.
type SurfaceSizer interface {
	SetSurfaceSize(w, h int)
}
