package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidbg/fluid"
	"github.com/pthm-cable/fluidbg/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title   string
	FPS     int32
	Frames  int
	State   string
	Formats string
	Pending int
	Paused  bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD in the top-right corner.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	x := screenWidth - 260

	rl.DrawText(data.Title, x, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("FPS: %d | Frames: %d | Pending: %d", data.FPS, data.Frames, data.Pending),
		x, 35, 14, rl.LightGray,
	)
	rl.DrawText(data.Formats, x, 53, 14, rl.LightGray)

	status := data.State
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(status, x, 71, 14, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-stage timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	stages := fluid.Stages()
	height := padding*2 + r.Theme.LineHeight*2 + int32(len(stages))*(r.Theme.LineHeight+2)

	r.DrawPanel(p.x, p.y, p.width, height)
	y := r.DrawSectionHeader(p.x+padding, p.y+padding, "Frame")
	y = r.DrawLabelValue(p.x+padding, y, "avg / std",
		fmt.Sprintf("%s / %s", stats.AvgFrameDuration.Round(time.Microsecond), stats.StdFrameDuration.Round(time.Microsecond)))

	for _, stage := range stages {
		y = r.DrawBar(p.x+padding, y, stage.String(), float32(stats.StagePct[stage]), 100, "%.1f%%", p.width-padding*2)
	}
}
