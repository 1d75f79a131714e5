// Package snapshot converts backend texture readbacks into PNG images.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"github.com/pthm-cable/fluidbg/fluid"
)

// ToImage converts RGBA float texels (row-major, bottom row first) to an 8-bit
// image with the top row first. Values are clamped to [0,1]. The texels are
// treated as premultiplied, which holds for the display output where alpha is the
// largest colour channel; colour channels are clamped to alpha to keep the image valid.
func ToImage(px []float32, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 || len(px) != w*h*4 {
		return nil, fmt.Errorf("snapshot: %d texels for %dx%d", len(px)/4, w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := px[(h-1-y)*w*4 : (h-y)*w*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			a := unit(src[x*4+3])
			for c := 0; c < 3; c++ {
				dst[x*4+c] = unit(min(src[x*4+c], float32(a)/255))
			}
			dst[x*4+3] = a
		}
	}
	return img, nil
}

func unit(v float32) uint8 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Scale resamples img to w x h with bilinear filtering.
func Scale(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Capture reads t back through r and converts it to an image. Field textures are
// made opaque; pass opaque=false for the presented surface.
func Capture(r fluid.Reader, t fluid.Texture, opaque bool) (*image.RGBA, error) {
	if r == nil || t == nil {
		return nil, errors.New("snapshot: nothing to capture")
	}
	px, err := r.ReadPixels(t)
	if err != nil {
		return nil, fmt.Errorf("reading pixels: %w", err)
	}
	return fieldImage(px, t.Width(), t.Height(), opaque)
}

func fieldImage(px []float32, w, h int, opaque bool) (*image.RGBA, error) {
	if !opaque {
		return ToImage(px, w, h)
	}
	// Raw field values are not premultiplied; force alpha first so colour survives.
	forced := make([]float32, len(px))
	copy(forced, px)
	for i := 3; i < len(forced); i += 4 {
		forced[i] = 1
	}
	return ToImage(forced, w, h)
}

// WritePNG encodes img to path, creating parent directories as needed.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return f.Close()
}
