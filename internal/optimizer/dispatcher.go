package optimizer

import (
	"context"
	"fmt"
	"strings"

	"optimage/internal/compressor"
	"optimage/internal/format"
	"optimage/internal/logger"
	"optimage/internal/metadata"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedFormat is returned for formats without a compressor chain.
var ErrUnsupportedFormat = errors.New("no lossless compressor defined for format")

// InvalidExtensionError is returned when the file content does not match
// the format claimed by its extension.
type InvalidExtensionError struct {
	Path   string
	Format imaging.Format
	// Actual is the format found in the content, or -1 when unknown.
	Actual imaging.Format
}

func (e *InvalidExtensionError) Error() string {
	if e.Actual < 0 {
		return fmt.Sprintf("%s is not a %s file", e.Path, e.Format)
	}
	return fmt.Sprintf("%s is not a %s file but %s data", e.Path, e.Format, e.Actual)
}

// Profile binds an image format to its content check and compressor chain.
type Profile struct {
	Format     imaging.Format
	Extensions []string
	Validate   func(path string) (bool, error)
	Chain      []compressor.Compressor
}

// BinaryResolver returns the executable configured for a compressor name.
type BinaryResolver func(name string) string

// DefaultProfiles returns the JPEG and PNG profiles. Executables are taken
// from binary, which may be nil to use the plain tool names.
func DefaultProfiles(binary BinaryResolver, log logrus.FieldLogger) map[imaging.Format]*Profile {
	if binary == nil {
		binary = func(name string) string { return name }
	}
	withLogger := func(c *compressor.Command) compressor.Compressor {
		c.Logger = log
		return c
	}

	return map[imaging.Format]*Profile{
		imaging.JPEG: {
			Format:     imaging.JPEG,
			Extensions: []string{".jpg", ".jpeg"},
			Validate:   format.IsJPEG,
			Chain: []compressor.Compressor{
				withLogger(compressor.Jpegtran(binary(compressor.JpegtranName))),
				withLogger(compressor.Jpegoptim(binary(compressor.JpegoptimName))),
			},
		},
		imaging.PNG: {
			Format:     imaging.PNG,
			Extensions: []string{".png"},
			Validate:   format.IsPNG,
			Chain: []compressor.Compressor{
				withLogger(compressor.Pngcrush(binary(compressor.PngcrushName))),
				withLogger(compressor.Optipng(binary(compressor.OptipngName))),
				withLogger(compressor.Zopflipng(binary(compressor.ZopflipngName))),
			},
		},
	}
}

// Dispatcher routes an image to the compressor chain of its format.
type Dispatcher struct {
	profiles map[imaging.Format]*Profile
	selector *Selector
	logger   logrus.FieldLogger
}

// NewDispatcher returns a Dispatcher over the given profiles.
func NewDispatcher(profiles map[imaging.Format]*Profile, selector *Selector, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		profiles: profiles,
		selector: selector,
		logger:   log,
	}
}

// FormatForExtension maps a file extension (with or without the leading
// dot, any case) to a format that has a profile.
func (d *Dispatcher) FormatForExtension(ext string) (imaging.Format, bool) {
	f, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return -1, false
	}
	p, ok := d.profiles[f]
	if !ok {
		return -1, false
	}
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, e := range p.Extensions {
		if e == ext {
			return f, true
		}
	}
	return -1, false
}

// Compress checks that input really is an image of format f and writes the
// best lossless recompression to output.
func (d *Dispatcher) Compress(ctx context.Context, f imaging.Format, input, output string) (*Result, error) {
	p, ok := d.profiles[f]
	if !ok {
		return nil, errors.Wrap(ErrUnsupportedFormat, f.String())
	}

	valid, err := p.Validate(input)
	if err != nil {
		return nil, errors.Wrapf(err, "check %s", input)
	}
	if !valid {
		actual, err := format.Detect(input)
		if err != nil {
			actual = -1
		}
		invalid := &InvalidExtensionError{Path: input, Format: f, Actual: actual}
		logger.WithFile(d.logger, input).Debug(invalid.Error())
		return nil, invalid
	}

	if f == imaging.JPEG {
		d.logMetadata(input)
	}

	return d.selector.SelectBest(ctx, input, output, p.Chain)
}

// logMetadata reports the EXIF fields the JPEG compressors will drop.
func (d *Dispatcher) logMetadata(path string) {
	log := logger.WithFileOperation(d.logger, path, "inspect")

	info, err := metadata.Inspect(path)
	if err != nil {
		log.WithError(err).Debug("no EXIF metadata")
		return
	}
	if info.Empty() {
		return
	}
	log.WithFields(info.Fields()).Debug("EXIF metadata will be stripped")
}
