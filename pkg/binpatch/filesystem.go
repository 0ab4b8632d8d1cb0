package binpatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	opRead   = "read"
	opBackup = "backup"
	opWrite  = "write"
)

const defaultPerm fs.FileMode = 0o644

// fileSystem is the minimal set of operations the patcher needs. Tests swap
// in implementations that fail at chosen points.
type fileSystem interface {
	ReadFile(path string) ([]byte, fs.FileMode, error)
	WriteFile(path string, data []byte, perm fs.FileMode) error
	WriteFileAtomic(path string, data []byte, mode fs.FileMode) error
}

type osFileSystem struct {
	rename func(oldpath, newpath string) error
}

func newOSFileSystem() *osFileSystem {
	return &osFileSystem{rename: os.Rename}
}

func (osFileSystem) ReadFile(path string) ([]byte, fs.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("%s is a directory", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return content, info.Mode(), nil
}

func (osFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	if perm == 0 {
		perm = defaultPerm
	}
	return os.WriteFile(path, data, perm)
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// over path once the data is flushed. Symlinks are resolved first so the link
// survives and its target receives the data. The original permission and
// special bits are carried over. On failure the temporary file is removed and
// path is left as it was.
func (o *osFileSystem) WriteFileAtomic(path string, data []byte, mode fs.FileMode) (err error) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return err
	}
	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".binpatch-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	perm := mode & fs.ModePerm
	if perm == 0 {
		perm = defaultPerm
	}
	desired := perm | (mode & (fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky))
	if err = os.Chmod(tmpPath, desired); err != nil {
		return fmt.Errorf("failed to restore permissions: %w", err)
	}

	rename := o.rename
	if rename == nil {
		rename = os.Rename
	}
	if err = rename(tmpPath, target); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) {
			return linkErr.Err
		}
		return err
	}
	return nil
}
