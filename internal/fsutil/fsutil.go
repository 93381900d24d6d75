// Package fsutil has the file helpers shared by the catalog, state, queue
// and asset stores.
package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/modelshelf/modelshelf/pkg/constants"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
)

// WriteFile replaces path with data. The bytes are written to a temporary
// file in the same directory and renamed over path, so readers never see a
// partially written file.
func WriteFile(path string, data []byte) error {
	return WriteFrom(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteFrom is WriteFile for streamed content.
func WriteFrom(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return pkgerrors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return pkgerrors.WrapIO("create", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return pkgerrors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.WrapIO("write", path, err)
	}
	if err := os.Chmod(tmpName, constants.FilePermissions); err != nil {
		return pkgerrors.WrapIO("chmod", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return pkgerrors.WrapIO("rename", path, err)
	}
	return nil
}

// Exists reports whether path exists. Stat errors other than "not exist"
// count as existing so callers do not overwrite files they cannot inspect.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
