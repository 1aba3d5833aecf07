package metadata

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exifMake is a little-endian TIFF block with a single Make="Acme" entry.
var exifMake = []byte{
	'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00,
	0x01, 0x00,
	0x0F, 0x01, 0x02, 0x00, 0x05, 0x00, 0x00, 0x00, 0x1A, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	'A', 'c', 'm', 'e', 0x00,
}

func encodeJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(8, 8, color.NRGBA{R: 30, G: 60, B: 90, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func withExif(jpeg, tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	length := len(payload) + 2

	out := append([]byte{}, jpeg[:2]...)
	out = append(out, 0xFF, 0xE1, byte(length>>8), byte(length))
	out = append(out, payload...)
	return append(out, jpeg[2:]...)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.jpg")
	require.NoError(t, os.WriteFile(path, withExif(encodeJPEG(t), exifMake), 0o644))

	info, err := Inspect(path)
	require.NoError(t, err)

	assert.Equal(t, "Acme", info.Make)
	assert.Empty(t, info.Model)
	assert.Nil(t, info.DateTime)
	assert.False(t, info.Empty())
	assert.Equal(t, "Acme", info.Fields()["exif_make"])
	assert.Len(t, info.Fields(), 1)

	// Still a decodable image.
	_, err = imaging.Open(path)
	require.NoError(t, err)
}

func TestInspectWithoutExif(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	require.NoError(t, os.WriteFile(path, encodeJPEG(t), 0o644))

	_, err := Inspect(path)
	assert.Error(t, err)
}

func TestInspectMissingFile(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestInfoEmpty(t *testing.T) {
	info := &Info{}
	assert.True(t, info.Empty())
	assert.Empty(t, info.Fields())
}
