package imagecmp

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	return img
}

func savePNG(t *testing.T, name string, img image.Image, level png.CompressionLevel) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := png.Encoder{CompressionLevel: level}
	require.NoError(t, enc.Encode(f, img))
	return path
}

func TestEqualImagesTransparentPixel(t *testing.T) {
	a := gradient(8, 8)
	b := imaging.Clone(a)

	a.SetNRGBA(3, 3, color.NRGBA{R: 255, G: 0, B: 0, A: 0})
	b.SetNRGBA(3, 3, color.NRGBA{R: 0, G: 255, B: 7, A: 0})

	assert.True(t, EqualImages(a, b))
}

func TestEqualImagesOpaqueDifference(t *testing.T) {
	a := gradient(8, 8)
	b := imaging.Clone(a)

	b.SetNRGBA(5, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	assert.False(t, EqualImages(a, b))
}

func TestEqualImagesAlphaDifference(t *testing.T) {
	a := gradient(4, 4)
	b := imaging.Clone(a)

	// Only one side fully transparent.
	c := a.NRGBAAt(0, 0)
	c.A = 0
	b.SetNRGBA(0, 0, c)

	assert.False(t, EqualImages(a, b))
}

func TestEqualImagesSemiTransparentDifference(t *testing.T) {
	a := gradient(4, 4)
	b := imaging.Clone(a)

	a.SetNRGBA(2, 2, color.NRGBA{R: 10, G: 10, B: 10, A: 1})
	b.SetNRGBA(2, 2, color.NRGBA{R: 11, G: 10, B: 10, A: 1})

	assert.False(t, EqualImages(a, b))
}

func TestEqualImagesDifferentSize(t *testing.T) {
	assert.False(t, EqualImages(gradient(4, 4), gradient(4, 5)))
	// Same number of pixels, different shape.
	assert.False(t, EqualImages(gradient(2, 8), gradient(8, 2)))
}

func TestEqualImagesPaletteVersusTruecolor(t *testing.T) {
	palette := color.Palette{
		color.NRGBA{R: 0, G: 0, B: 0, A: 255},
		color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}
	paletted := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	truecolor := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			idx := uint8((x + y) % 2)
			paletted.SetColorIndex(x, y, idx)
			truecolor.Set(x, y, palette[idx])
		}
	}

	assert.True(t, EqualImages(paletted, truecolor))
}

func TestEqualImagesGrayVersusRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	rgba := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			v := uint8(x*40 + y)
			gray.SetGray(x, y, color.Gray{Y: v})
			rgba.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	assert.True(t, EqualImages(gray, rgba))
}

func TestEqualFiles(t *testing.T) {
	img := gradient(16, 16)
	raw := savePNG(t, "valid1.png", img, png.NoCompression)
	compressed := savePNG(t, "valid1_compressed.png", img, png.BestCompression)

	other := imaging.Clone(img)
	other.SetNRGBA(0, 0, color.NRGBA{R: 9, G: 9, B: 9, A: 255})
	different := savePNG(t, "valid2.png", other, png.DefaultCompression)

	tests := []struct {
		name     string
		path1    string
		path2    string
		expected bool
	}{
		{"same pixels different encoding", raw, compressed, true},
		{"same file", raw, raw, true},
		{"different pixels", raw, different, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, err := Equal(tt.path1, tt.path2)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, eq)
		})
	}
}

func TestEqualDecodeError(t *testing.T) {
	valid := savePNG(t, "valid.png", gradient(2, 2), png.DefaultCompression)
	broken := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("\x89PNG\r\n\x1a\ngarbage"), 0o644))

	_, err := Equal(valid, broken)
	assert.Error(t, err)

	_, err = Equal(filepath.Join(t.TempDir(), "missing.png"), valid)
	assert.Error(t, err)
}
