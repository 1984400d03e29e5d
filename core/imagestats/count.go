// Package imagestats counts the pixels of a template image that need to be
// painted. Transparent pixels are skipped.
package imagestats

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	// Decoders accepted for uploaded templates.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds the size of images accepted by Count.
const DefaultMaxPixels = 4096 * 4096

var (
	// ErrInvalidImage is returned when the payload cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrImageTooLarge is returned when the image exceeds the pixel limit.
	ErrImageTooLarge = fmt.Errorf("%w: too large", ErrInvalidImage)
)

// Result describes a counted image.
type Result struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pixels int    `json:"pixels"`
}

// Counter decodes images and counts their visible pixels.
type Counter struct {
	MaxPixels int
}

// Count decodes r with the default limits.
func Count(r io.Reader) (Result, error) {
	return Counter{}.Count(r)
}

// Count decodes r and counts the pixels whose alpha is above zero.
func (c Counter) Count(r io.Reader) (Result, error) {
	limit := c.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	br := newReplayReader(r)
	cfg, _, err := image.DecodeConfig(br)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if cfg.Width*cfg.Height > limit {
		return Result{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, limit)
	}
	img, format, err := image.Decode(br.replay())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	b := img.Bounds()
	return Result{
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: CountVisiblePixels(img),
	}, nil
}

// CountVisiblePixels returns the number of pixels with a non-zero alpha.
// Images without an alpha channel count every pixel. Paletted images are
// resolved through their palette.
func CountVisiblePixels(img image.Image) int {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK:
		return b.Dx() * b.Dy()
	case *image.NRGBA:
		return countAlpha8(m.Pix, m.Stride, b.Dx(), b.Dy(), 4, 3)
	case *image.RGBA:
		return countAlpha8(m.Pix, m.Stride, b.Dx(), b.Dy(), 4, 3)
	case *image.Alpha:
		return countAlpha8(m.Pix, m.Stride, b.Dx(), b.Dy(), 1, 0)
	case *image.Paletted:
		return countPaletted(m)
	}
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				n++
			}
		}
	}
	return n
}

func countAlpha8(pix []uint8, stride, w, h, bpp, off int) int {
	n := 0
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		for x := 0; x < w; x++ {
			if row[x*bpp+off] > 0 {
				n++
			}
		}
	}
	return n
}

func countPaletted(m *image.Paletted) int {
	visible := make([]bool, len(m.Palette))
	for i, c := range m.Palette {
		visible[i] = alpha(c) > 0
	}
	b := m.Bounds()
	n := 0
	for y := 0; y < b.Dy(); y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+b.Dx()]
		for _, idx := range row {
			// out-of-palette indices decode as opaque black
			if int(idx) >= len(visible) || visible[idx] {
				n++
			}
		}
	}
	return n
}

func alpha(c color.Color) uint32 {
	_, _, _, a := c.RGBA()
	return a
}
