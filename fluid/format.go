package fluid

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when no render-target format can hold a field.
var ErrUnsupportedFormat = errors.New("no supported render target format")

// NegotiateFormat picks the narrowest renderable format with at least the requested
// channel count. Precisions are tried in order; within a precision the channel
// count widens 1 -> 2 -> 4. With no precisions given, half then float is tried.
func NegotiateFormat(caps Capabilities, channels int, precisions ...Precision) (Format, error) {
	if len(precisions) == 0 {
		precisions = []Precision{PrecisionHalf, PrecisionFloat}
	}
	for _, p := range precisions {
		for _, ch := range widenings(channels) {
			f := Format{Channels: ch, Precision: p}
			if caps.SupportsRenderTarget(f) {
				return f, nil
			}
		}
	}
	return Format{}, fmt.Errorf("%d-channel field: %w", channels, ErrUnsupportedFormat)
}

func widenings(channels int) []int {
	switch {
	case channels <= 1:
		return []int{1, 2, 4}
	case channels == 2:
		return []int{2, 4}
	default:
		return []int{4}
	}
}

// FormatSet is the negotiated layout for every field kind.
type FormatSet struct {
	R    Format // divergence, curl, pressure
	RG   Format // velocity
	RGBA Format // dye, blur

	// LinearFiltering is false when the velocity and dye formats cannot be
	// sampled with hardware bilinear filtering; advection then interpolates
	// in-shader.
	LinearFiltering bool
}

// Filter returns the sampling mode for the velocity and dye fields.
func (fs FormatSet) Filter() Filter {
	if fs.LinearFiltering {
		return FilterLinear
	}
	return FilterNearest
}

// NegotiateFormats resolves the R, RG and RGBA formats. The preferred precision is
// tried first and the other one is the fallback. filtering is "auto", "on" or "off";
// "auto" asks the capabilities.
func NegotiateFormats(caps Capabilities, preferred Precision, filtering string) (FormatSet, error) {
	order := []Precision{preferred, PrecisionFloat}
	if preferred == PrecisionFloat {
		order[1] = PrecisionHalf
	}

	var fs FormatSet
	var err error
	if fs.RGBA, err = NegotiateFormat(caps, 4, order...); err != nil {
		return FormatSet{}, err
	}
	if fs.RG, err = NegotiateFormat(caps, 2, order...); err != nil {
		return FormatSet{}, err
	}
	if fs.R, err = NegotiateFormat(caps, 1, order...); err != nil {
		return FormatSet{}, err
	}

	switch filtering {
	case "on":
		fs.LinearFiltering = true
	case "off":
		fs.LinearFiltering = false
	default:
		fs.LinearFiltering = caps.SupportsLinearFiltering(fs.RGBA) && caps.SupportsLinearFiltering(fs.RG)
	}
	return fs, nil
}
