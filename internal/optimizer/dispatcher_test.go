package optimizer

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"optimage/internal/compressor"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEncoded(t *testing.T, name string, f imaging.Format) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	img := imaging.New(8, 8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	require.NoError(t, imaging.Encode(out, img, f))
	return path
}

func newTestDispatcher(t *testing.T, chain []compressor.Compressor) *Dispatcher {
	t.Helper()
	logger, _ := test.NewNullLogger()

	profiles := DefaultProfiles(nil, logger)
	profiles[imaging.PNG].Chain = chain
	profiles[imaging.JPEG].Chain = chain

	selector := NewSelector(logger)
	selector.TempDir = t.TempDir()
	selector.Verify = alwaysEqual
	return NewDispatcher(profiles, selector, logger)
}

func TestFormatForExtension(t *testing.T) {
	d := newTestDispatcher(t, nil)

	tests := []struct {
		ext      string
		expected imaging.Format
		ok       bool
	}{
		{".jpg", imaging.JPEG, true},
		{".JPG", imaging.JPEG, true},
		{".jpeg", imaging.JPEG, true},
		{".Jpeg", imaging.JPEG, true},
		{".png", imaging.PNG, true},
		{".PNG", imaging.PNG, true},
		{"png", imaging.PNG, true},
		{".gif", -1, false},
		{".tiff", -1, false},
		{".bmp", -1, false},
		{".txt", -1, false},
		{"", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			f, ok := d.FormatForExtension(tt.ext)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, f)
			}
		})
	}
}

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles(func(name string) string { return "/usr/local/bin/" + name }, nil)

	names := func(chain []compressor.Compressor) []string {
		var out []string
		for _, c := range chain {
			out = append(out, c.Name())
		}
		return out
	}

	require.Len(t, profiles, 2)
	assert.Equal(t, []string{"jpegtran", "jpegoptim"}, names(profiles[imaging.JPEG].Chain))
	assert.Equal(t, []string{"pngcrush", "optipng", "zopflipng"}, names(profiles[imaging.PNG].Chain))

	crush := profiles[imaging.PNG].Chain[0].(*compressor.Command)
	assert.Equal(t, "/usr/local/bin/pngcrush", crush.Binary)
}

func TestCompressInvalidExtension(t *testing.T) {
	fake := &fakeCompressor{name: "A", size: 1}
	d := newTestDispatcher(t, []compressor.Compressor{fake})

	gif := writeEncoded(t, "animation.png", imaging.GIF)

	tests := []struct {
		name   string
		path   string
		format imaging.Format
		actual imaging.Format
	}{
		{"jpeg named png", writeEncoded(t, "wrong_extension.png", imaging.JPEG), imaging.PNG, imaging.JPEG},
		{"png named jpg", writeEncoded(t, "wrong_extension.jpg", imaging.PNG), imaging.JPEG, imaging.PNG},
		{"gif named png", gif, imaging.PNG, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Compress(context.Background(), tt.format, tt.path, tt.path+".out")

			var invalid *InvalidExtensionError
			require.True(t, errors.As(err, &invalid), "unexpected error %v", err)
			assert.Equal(t, tt.path, invalid.Path)
			assert.Equal(t, tt.format, invalid.Format)
			assert.Equal(t, tt.actual, invalid.Actual)
		})
	}
	assert.Zero(t, fake.calls)
}

func TestInvalidExtensionErrorMessage(t *testing.T) {
	err := &InvalidExtensionError{Path: "x.png", Format: imaging.PNG, Actual: imaging.JPEG}
	assert.Equal(t, "x.png is not a PNG file but JPEG data", err.Error())

	err.Actual = -1
	assert.Equal(t, "x.png is not a PNG file", err.Error())
}

func TestCompressDelegatesToSelector(t *testing.T) {
	input := writeEncoded(t, "valid.png", imaging.PNG)
	output := filepath.Join(t.TempDir(), "out.png")

	d := newTestDispatcher(t, []compressor.Compressor{
		&fakeCompressor{name: "A", size: 5, fill: 'a'},
	})

	res, err := d.Compress(context.Background(), imaging.PNG, input, output)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Winner)
	assert.FileExists(t, output)
}

func TestCompressJPEG(t *testing.T) {
	input := writeEncoded(t, "valid.jpg", imaging.JPEG)
	output := filepath.Join(t.TempDir(), "out.jpg")

	d := newTestDispatcher(t, []compressor.Compressor{
		&fakeCompressor{name: "big", size: 1 << 20, fill: 'b'},
	})

	res, err := d.Compress(context.Background(), imaging.JPEG, input, output)
	require.NoError(t, err)
	assert.False(t, res.Improved())
}

func TestCompressUnsupportedFormat(t *testing.T) {
	d := newTestDispatcher(t, nil)
	input := writeEncoded(t, "valid.gif", imaging.GIF)

	_, err := d.Compress(context.Background(), imaging.GIF, input, input+".out")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCompressMissingInput(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Compress(context.Background(), imaging.PNG, filepath.Join(t.TempDir(), "missing.png"), "out")
	assert.Error(t, err)
}
