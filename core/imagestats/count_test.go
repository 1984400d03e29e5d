package imagestats

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestCountNRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 1})
	img.Set(3, 2, color.NRGBA{B: 255, A: 128})
	assert.Equal(t, 3, CountVisiblePixels(img))

	res, err := Count(encodePNG(t, img))
	require.NoError(t, err)
	assert.Equal(t, Result{Format: "png", Width: 4, Height: 3, Pixels: 3}, res)
}

func TestCountWithoutAlpha(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 7))
	assert.Equal(t, 35, CountVisiblePixels(img))

	res, err := Count(encodePNG(t, img))
	require.NoError(t, err)
	assert.Equal(t, 35, res.Pixels)
}

func TestCountPaletted(t *testing.T) {
	pal := color.Palette{color.NRGBA{}, color.NRGBA{R: 200, A: 255}}
	img := image.NewPaletted(image.Rect(0, 0, 3, 3), pal)
	img.SetColorIndex(1, 1, 1)
	img.SetColorIndex(2, 2, 1)
	assert.Equal(t, 2, CountVisiblePixels(img))

	res, err := Count(encodePNG(t, img))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pixels)
}

func TestCountSubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		img.Set(x, x, color.RGBA{A: 255})
	}
	sub := img.SubImage(image.Rect(2, 2, 5, 5))
	assert.Equal(t, 3, CountVisiblePixels(sub))
}

func TestCountGenericPath(t *testing.T) {
	img := image.NewNRGBA64(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA64{A: 0xffff})
	assert.Equal(t, 1, CountVisiblePixels(img))
}

func TestCountInvalid(t *testing.T) {
	_, err := Count(bytes.NewBufferString("not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage got %v", err)
	}
}

func TestCountTooLarge(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	_, err := Counter{MaxPixels: 100}.Count(encodePNG(t, img))
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.ErrorIs(t, err, ErrInvalidImage)
}
