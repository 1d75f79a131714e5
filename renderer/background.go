package renderer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// BackgroundRenderer draws a slowly drifting noise gradient behind the fluid.
// It is only visible where the fluid is transparent.
type BackgroundRenderer struct {
	shader        rl.Shader
	timeLoc       int32
	resolutionLoc int32
	baseColorLoc  int32

	screenW, screenH float32
	baseColor        [3]float32
	initialized      bool
	failed           bool
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(screenW, screenH int32, baseR, baseG, baseB uint8) *BackgroundRenderer {
	return &BackgroundRenderer{
		screenW: float32(screenW),
		screenH: float32(screenH),
		baseColor: [3]float32{
			float32(baseR) / 255.0,
			float32(baseG) / 255.0,
			float32(baseB) / 255.0,
		},
	}
}

// Init compiles the shader (must be called after raylib window is created).
func (b *BackgroundRenderer) Init() {
	if b.initialized || b.failed {
		return
	}

	src, err := shaderFS.ReadFile("shaders/backdrop.fs")
	if err == nil {
		b.shader = rl.LoadShaderFromMemory("", string(src))
	}
	if err != nil || !rl.IsShaderValid(b.shader) || b.shader.ID == rl.GetShaderIdDefault() {
		slog.Warn("backdrop shader unavailable, using flat color", "error", err)
		b.failed = true
		return
	}
	b.timeLoc = rl.GetShaderLocation(b.shader, "time")
	b.resolutionLoc = rl.GetShaderLocation(b.shader, "resolution")
	b.baseColorLoc = rl.GetShaderLocation(b.shader, "baseColor")

	b.initialized = true
}

// Resize updates the drawn area.
func (b *BackgroundRenderer) Resize(w, h float32) {
	b.screenW, b.screenH = w, h
}

// Draw renders the background. Without a shader it falls back to the base color.
func (b *BackgroundRenderer) Draw(time float32) {
	b.Init()
	if b.failed {
		rl.ClearBackground(rl.Color{
			R: uint8(b.baseColor[0] * 255),
			G: uint8(b.baseColor[1] * 255),
			B: uint8(b.baseColor[2] * 255),
			A: 255,
		})
		return
	}

	rl.BeginShaderMode(b.shader)

	rl.SetShaderValue(b.shader, b.timeLoc, []float32{time}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.shader, b.resolutionLoc, []float32{b.screenW, b.screenH}, rl.ShaderUniformVec2)
	rl.SetShaderValue(b.shader, b.baseColorLoc, b.baseColor[:], rl.ShaderUniformVec3)

	// Draw fullscreen quad
	rl.DrawRectangle(0, 0, int32(b.screenW), int32(b.screenH), rl.White)

	rl.EndShaderMode()
}

// Unload frees resources.
func (b *BackgroundRenderer) Unload() {
	if b.initialized {
		rl.UnloadShader(b.shader)
		b.initialized = false
	}
}
