// Package fileutil holds the small file operations shared by the
// compressors, the selector and the command line driver.
package fileutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CopyFile copies file src to dst, creating or truncating dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "create destination")
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "copy %s to %s", src, dst)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return errors.Wrap(err, "sync destination")
	}
	return out.Close()
}

// MoveFile renames src to dst, falling back to copy and remove when the
// two paths live on different file systems.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove source")
	}
	return nil
}

// ReplaceFile writes a copy of src to dst through a temporary file next to
// dst, so dst is never left partially written. The result gets the given
// permission bits. A symlinked dst, or one in a directory we cannot create
// files in, is overwritten in place instead.
func ReplaceFile(src, dst string, perm os.FileMode) error {
	if info, err := os.Lstat(dst); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return overwriteFile(src, dst, perm)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if errors.Is(err, fs.ErrPermission) {
		return overwriteFile(src, dst, perm)
	}
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := CopyFile(src, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "chmod temporary file")
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "rename to %s", dst)
	}
	return nil
}

// overwriteFile copies src over dst, following symlinks.
func overwriteFile(src, dst string, perm os.FileMode) error {
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return errors.Wrap(os.Chmod(dst, perm), "chmod destination")
}

// Size returns the size in bytes of the file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(err, "stat")
	}
	return info.Size(), nil
}

// IsRegular reports whether path exists and is a regular file.
func IsRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
