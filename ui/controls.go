package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidbg/config"
)

// Changes reports what the tuning panel edited this frame.
type Changes struct {
	Params  int  // Number of sliders moved
	Shading bool // Shading was toggled; the display program must be rebuilt
	Reset   bool // The user asked to restore the loaded configuration
}

// TuningPanel renders the left-side panel with live fluid parameter controls.
type TuningPanel struct {
	renderer *Renderer
	params   []ParamDescriptor
	toggles  []ToggleDescriptor
	x, y     int32
	width    int32
	visible  bool
}

// NewTuningPanel creates a hidden tuning panel.
func NewTuningPanel(x, y, width int32) *TuningPanel {
	return &TuningPanel{
		renderer: NewRenderer(),
		params:   FluidParams(),
		toggles:  FluidToggles(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// IsVisible returns whether the panel is shown.
func (c *TuningPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *TuningPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point lies over the visible panel, so pointer
// input there is not forwarded to the fluid.
func (c *TuningPanel) Contains(p rl.Vector2) bool {
	if !c.visible {
		return false
	}
	return rl.CheckCollisionPointRec(p, rl.Rectangle{
		X: float32(c.x), Y: float32(c.y), Width: float32(c.width), Height: float32(c.height()),
	})
}

func (c *TuningPanel) height() int32 {
	t := c.renderer.Theme
	sliders := int32(len(c.params)) * (t.LineHeight + t.BarHeight + 10)
	toggles := int32(len(c.toggles)+1) * 24
	return t.Padding*3 + t.LineHeight*2 + sliders + toggles
}

// HandleKeys applies toggle keyboard shortcuts even when the panel is hidden.
func (c *TuningPanel) HandleKeys(cfg *config.FluidConfig) Changes {
	var ch Changes
	for _, d := range c.toggles {
		if d.Key != 0 && rl.IsKeyPressed(d.Key) {
			ch.merge(flip(cfg, d))
		}
	}
	return ch
}

// Draw renders the panel and applies any edits to cfg.
func (c *TuningPanel) Draw(cfg *config.FluidConfig) Changes {
	var ch Changes
	if !c.visible {
		return ch
	}

	r := c.renderer
	padding := r.Theme.Padding
	inner := c.width - padding*2

	r.DrawPanel(c.x, c.y, c.width, c.height())
	y := r.DrawSectionHeader(c.x+padding, c.y+padding, "Fluid")
	y += 4

	for _, d := range c.params {
		var v float32
		v, y = r.DrawSlider(c.x+padding, y, d, d.Get(cfg), inner)
		if d.Apply(cfg, v) {
			ch.Params++
		}
	}

	y += 4
	for _, d := range c.toggles {
		var clicked bool
		clicked, y = r.DrawToggle(c.x+padding, y, d, d.Get(cfg), inner)
		if clicked {
			ch.merge(flip(cfg, d))
		}
	}

	resetBounds := rl.Rectangle{X: float32(c.x + padding), Y: float32(y), Width: float32(inner), Height: 20}
	if gui.Button(resetBounds, "Reset") {
		ch.Reset = true
	}
	return ch
}

func flip(cfg *config.FluidConfig, d ToggleDescriptor) Changes {
	d.Set(cfg, !d.Get(cfg))
	return Changes{Shading: d.ID == "shading"}
}

func (ch *Changes) merge(o Changes) {
	ch.Params += o.Params
	ch.Shading = ch.Shading || o.Shading
	ch.Reset = ch.Reset || o.Reset
}
