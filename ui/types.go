// Package ui provides a descriptor-driven tuning panel and HUD for the fluid effect.
// Instead of hard-coding parameter names and layouts, controls are defined through
// metadata that maps onto the config fields they edit.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidbg/config"
)

// ParamDescriptor defines a slider bound to one numeric fluid option.
type ParamDescriptor struct {
	ID     string  // Unique identifier
	Label  string  // Display label
	Min    float32 // Slider range
	Max    float32
	Format string // Printf format for the value
	Get    func(*config.FluidConfig) float32
	Set    func(*config.FluidConfig, float32)
}

// ToggleDescriptor defines an on/off control bound to one boolean fluid option.
type ToggleDescriptor struct {
	ID    string
	Label string
	Key   int32 // Keyboard shortcut (0 = none)
	Get   func(*config.FluidConfig) bool
	Set   func(*config.FluidConfig, bool)
}

// Apply clamps v to the descriptor range and writes it to cfg.
// It reports whether the stored value changed.
func (d ParamDescriptor) Apply(cfg *config.FluidConfig, v float32) bool {
	if v < d.Min {
		v = d.Min
	}
	if v > d.Max {
		v = d.Max
	}
	if d.Get(cfg) == v {
		return false
	}
	d.Set(cfg, v)
	return true
}

// FluidParams returns the sliders shown in the tuning panel, in display order.
func FluidParams() []ParamDescriptor {
	return []ParamDescriptor{
		{
			ID: "density_dissipation", Label: "Density diss.", Min: 0, Max: 4, Format: "%.2f",
			Get: func(c *config.FluidConfig) float32 { return c.DensityDissipation },
			Set: func(c *config.FluidConfig, v float32) { c.DensityDissipation = v },
		},
		{
			ID: "velocity_dissipation", Label: "Velocity diss.", Min: 0, Max: 4, Format: "%.2f",
			Get: func(c *config.FluidConfig) float32 { return c.VelocityDissipation },
			Set: func(c *config.FluidConfig, v float32) { c.VelocityDissipation = v },
		},
		{
			ID: "pressure", Label: "Pressure", Min: 0, Max: 1, Format: "%.2f",
			Get: func(c *config.FluidConfig) float32 { return c.Pressure },
			Set: func(c *config.FluidConfig, v float32) { c.Pressure = v },
		},
		{
			ID: "pressure_iterations", Label: "Iterations", Min: 0, Max: 60, Format: "%.0f",
			Get: func(c *config.FluidConfig) float32 { return float32(c.PressureIterations) },
			Set: func(c *config.FluidConfig, v float32) { c.PressureIterations = int(v + 0.5) },
		},
		{
			ID: "curl", Label: "Curl", Min: 0, Max: 50, Format: "%.0f",
			Get: func(c *config.FluidConfig) float32 { return c.Curl },
			Set: func(c *config.FluidConfig, v float32) { c.Curl = v },
		},
		{
			ID: "splat_radius", Label: "Splat radius", Min: 0.01, Max: 1, Format: "%.2f",
			Get: func(c *config.FluidConfig) float32 { return c.SplatRadius },
			Set: func(c *config.FluidConfig, v float32) { c.SplatRadius = v },
		},
		{
			ID: "splat_force", Label: "Splat force", Min: 500, Max: 12000, Format: "%.0f",
			Get: func(c *config.FluidConfig) float32 { return c.SplatForce },
			Set: func(c *config.FluidConfig, v float32) { c.SplatForce = v },
		},
	}
}

// FluidToggles returns the on/off controls shown in the tuning panel.
func FluidToggles() []ToggleDescriptor {
	return []ToggleDescriptor{
		{
			ID: "shading", Label: "Shading", Key: rl.KeyS,
			Get: func(c *config.FluidConfig) bool { return c.Shading },
			Set: func(c *config.FluidConfig, v bool) { c.Shading = v },
		},
		{
			ID: "blur", Label: "Blur", Key: rl.KeyB,
			Get: func(c *config.FluidConfig) bool { return c.Blur },
			Set: func(c *config.FluidConfig, v bool) { c.Blur = v },
		},
		{
			ID: "transparent", Label: "Transparent", Key: rl.KeyT,
			Get: func(c *config.FluidConfig) bool { return c.Transparent },
			Set: func(c *config.FluidConfig, v bool) { c.Transparent = v },
		},
	}
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	ToggleOn       rl.Color
	ToggleOff      rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 220},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		ToggleOn:       rl.Color{R: 100, G: 200, B: 100, A: 255},
		ToggleOff:      rl.Color{R: 80, G: 80, B: 80, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     100,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
