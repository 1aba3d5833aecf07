// Package format identifies image files by their leading magic number,
// independent of the file name.
package format

import (
	"bytes"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Magic numbers, see https://en.wikipedia.org/wiki/List_of_file_signatures.
var (
	JPEGMagic = []byte{0xFF, 0xD8, 0xFF}
	PNGMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

// ErrUnknownFormat is returned by Detect when no known magic number matches.
var ErrUnknownFormat = errors.New("unknown image format")

// CheckMagic reports whether the file at path starts with magic. Only
// len(magic) bytes are read. A file shorter than magic does not match.
func CheckMagic(path string, magic []byte) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.Wrap(err, "open file")
	}
	defer f.Close()

	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, errors.Wrapf(err, "read %s", path)
	}
	return bytes.Equal(buf, magic), nil
}

// IsJPEG reports whether the file content is a JPEG image.
func IsJPEG(path string) (bool, error) {
	return CheckMagic(path, JPEGMagic)
}

// IsPNG reports whether the file content is a PNG image.
func IsPNG(path string) (bool, error) {
	return CheckMagic(path, PNGMagic)
}

// Detect returns the format of the file content.
func Detect(path string) (imaging.Format, error) {
	if ok, err := IsPNG(path); err != nil {
		return -1, err
	} else if ok {
		return imaging.PNG, nil
	}
	if ok, err := IsJPEG(path); err != nil {
		return -1, err
	} else if ok {
		return imaging.JPEG, nil
	}
	return -1, ErrUnknownFormat
}
