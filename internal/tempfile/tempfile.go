package tempfile

import (
	"os"

	"github.com/pkg/errors"
)

// DefaultPrefix is the base name prefix of every reserved path.
const DefaultPrefix = "optimage-"

// Set is a group of reserved, non-existent file paths owned by a single
// call frame. Callers must defer Release right after Reserve.
type Set struct {
	paths []string
}

// Reserve allocates n unique file paths in dir (os.TempDir when empty).
// Each path is claimed by creating and immediately removing a file, so the
// returned paths do not exist on disk.
func Reserve(dir, prefix string, n int) (*Set, error) {
	if n < 0 {
		return nil, errors.Errorf("invalid number of temporary files: %d", n)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	set := &Set{paths: make([]string, 0, n)}
	for i := 0; i < n; i++ {
		name, err := reserveOne(dir, prefix)
		if err != nil {
			set.Release()
			return nil, err
		}
		set.paths = append(set.paths, name)
	}
	return set, nil
}

// Paths returns the reserved paths in allocation order.
func (s *Set) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Path returns the i-th reserved path.
func (s *Set) Path(i int) string {
	return s.paths[i]
}

// Release removes every path of the set, ignoring files that were never
// created or were already removed. It is safe to call more than once.
func (s *Set) Release() {
	if s == nil {
		return
	}
	for _, p := range s.paths {
		// The file may never have been written.
		_ = os.Remove(p)
	}
}

// reserveOne returns a unique, currently non-existent path.
func reserveOne(dir, prefix string) (string, error) {
	f, err := os.CreateTemp(dir, prefix)
	if err != nil {
		return "", errors.Wrap(err, "create temporary file")
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", errors.Wrap(err, "close temporary file")
	}
	if err := os.Remove(name); err != nil {
		return "", errors.Wrap(err, "remove temporary file")
	}
	return name, nil
}
