package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a horizontal bar for value in [0, max] with a text readout.
func (r *Renderer) DrawBar(x, y int32, label string, value, max float32, format string, width int32) int32 {
	ratio := float32(0)
	if max > 0 {
		ratio = value / max
	}
	ratio = min(max32(ratio, 0), 1)

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*ratio), r.Theme.BarHeight, r.Theme.BarFill)
	rl.DrawText(fmt.Sprintf(format, value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawSlider draws a labelled raygui slider and returns the new value and Y position.
func (r *Renderer) DrawSlider(x, y int32, d ParamDescriptor, value float32, width int32) (float32, int32) {
	rl.DrawText(d.Label, x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(fmt.Sprintf(d.Format, value), x+width-50, y, r.Theme.FontSize, r.Theme.ValueColor)
	y += r.Theme.LineHeight

	bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: float32(r.Theme.BarHeight + 4)}
	value = gui.SliderBar(bounds, "", "", value, d.Min, d.Max)
	return value, y + r.Theme.BarHeight + 10
}

// DrawToggle draws a raygui button showing the toggle state. It returns true when
// the button was clicked.
func (r *Renderer) DrawToggle(x, y int32, d ToggleDescriptor, on bool, width int32) (bool, int32) {
	indicator := r.Theme.ToggleOff
	if on {
		indicator = r.Theme.ToggleOn
	}
	rl.DrawRectangle(x, y+6, 8, 8, indicator)

	label := d.Label
	if d.Key != 0 {
		label = fmt.Sprintf("%s [%c]", d.Label, rune(d.Key))
	}
	bounds := rl.Rectangle{X: float32(x + 14), Y: float32(y), Width: float32(width - 14), Height: 20}
	clicked := gui.Button(bounds, label)
	return clicked, y + 24
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
