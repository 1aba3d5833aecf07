// Package metadata reads the EXIF fields of JPEG files, so the driver can
// tell which metadata a lossless recompression is going to strip.
package metadata

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
)

// Info holds the EXIF fields worth reporting.
type Info struct {
	Make     string
	Model    string
	Software string
	DateTime *time.Time
}

// Empty reports whether no field was found.
func (i *Info) Empty() bool {
	return i.Make == "" && i.Model == "" && i.Software == "" && i.DateTime == nil
}

// Fields returns the non-empty fields as log fields.
func (i *Info) Fields() logrus.Fields {
	fields := logrus.Fields{}
	if i.Make != "" {
		fields["exif_make"] = i.Make
	}
	if i.Model != "" {
		fields["exif_model"] = i.Model
	}
	if i.Software != "" {
		fields["exif_software"] = i.Software
	}
	if i.DateTime != nil {
		fields["exif_datetime"] = i.DateTime.Format("2006-01-02 15:04:05")
	}
	return fields
}

// Inspect decodes the EXIF block of the file at path.
func Inspect(path string) (*Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode EXIF")
	}

	info := &Info{
		Make:     stringField(x, exif.Make),
		Model:    stringField(x, exif.Model),
		Software: stringField(x, exif.Software),
	}
	if tm, err := x.DateTime(); err == nil {
		info.DateTime = &tm
	}
	return info, nil
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	val, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(val, "\x00"))
}
