// Package imagecmp decides whether two image files hold the same pixels.
//
// Both images are normalized to non-premultiplied RGBA so that encoding
// differences (palette vs truecolor, missing alpha channel) are not mistaken
// for content differences. Fully transparent pixels compare equal whatever
// their color channels hold, since lossless optimizers are free to rewrite
// them.
package imagecmp

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Equal decodes both files and reports whether they are visually identical.
// Decoding failures are returned as errors.
func Equal(path1, path2 string) (bool, error) {
	img1, err := imaging.Open(path1)
	if err != nil {
		return false, errors.Wrapf(err, "decode %s", path1)
	}
	img2, err := imaging.Open(path2)
	if err != nil {
		return false, errors.Wrapf(err, "decode %s", path2)
	}
	return EqualImages(img1, img2), nil
}

// EqualImages reports whether a and b are visually identical.
func EqualImages(a, b image.Image) bool {
	n1 := imaging.Clone(a)
	n2 := imaging.Clone(b)

	if n1.Rect.Dx() != n2.Rect.Dx() || n1.Rect.Dy() != n2.Rect.Dy() {
		return false
	}
	if len(n1.Pix) != len(n2.Pix) {
		return false
	}

	for pos := 0; pos+3 < len(n1.Pix); pos += 4 {
		if n1.Pix[pos+3] == 0 && n2.Pix[pos+3] == 0 {
			continue
		}
		if n1.Pix[pos] != n2.Pix[pos] ||
			n1.Pix[pos+1] != n2.Pix[pos+1] ||
			n1.Pix[pos+2] != n2.Pix[pos+2] ||
			n1.Pix[pos+3] != n2.Pix[pos+3] {
			return false
		}
	}
	return true
}
