// Package assets manages the locally materialized preview images and model
// files and fetches the missing ones through the channel transport.
package assets

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/constants"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
)

// Layout maps entries to paths under a data directory:
//
//	<root>/images/<id>.jpg
//	<root>/files/<id>/<file name>
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// ImagePath returns the preview image path for id.
func (l Layout) ImagePath(id string) string {
	return l.Resolve(path.Join(constants.ImagesDir, id+constants.ImageExt))
}

// FileDir returns the directory holding the file of id.
func (l Layout) FileDir(id string) string {
	return l.Resolve(path.Join(constants.FilesDir, id))
}

// FilePath returns the local file path of e. The entry locator is used when
// set, otherwise the path is derived from the id.
func (l Layout) FilePath(e *catalog.Entry) string {
	if e.DirectURL != "" {
		return l.Resolve(e.DirectURL)
	}
	return l.Resolve(catalog.DirectURLFor(e.ID, ""))
}

// Resolve turns a slash separated locator relative to the data directory
// into a path. Locators cannot escape the root.
func (l Layout) Resolve(locator string) string {
	clean := path.Clean("/" + locator)
	return filepath.Join(l.Root, filepath.FromSlash(clean))
}

// Move renames the assets of oldID to newID. Missing assets are ignored.
func (l Layout) Move(oldID, newID string) error {
	if oldID == newID {
		return nil
	}
	if err := checkID(oldID); err != nil {
		return err
	}
	if err := checkID(newID); err != nil {
		return err
	}
	if err := rename(l.ImagePath(oldID), l.ImagePath(newID)); err != nil {
		return err
	}
	return rename(l.FileDir(oldID), l.FileDir(newID))
}

// Remove deletes every asset of id.
func (l Layout) Remove(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := remove(l.ImagePath(id)); err != nil {
		return err
	}
	dir := l.FileDir(id)
	if err := os.RemoveAll(dir); err != nil {
		return pkgerrors.WrapIO("delete", dir, err)
	}
	return nil
}

// InvalidateImage deletes the preview image of id so the next
// materialization fetches the current one.
func (l Layout) InvalidateImage(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return remove(l.ImagePath(id))
}

// InvalidateFile deletes the file at locator.
func (l Layout) InvalidateFile(locator string) error {
	if locator == "" {
		return nil
	}
	return remove(l.Resolve(locator))
}

// checkID rejects ids that would resolve to the shared images or files
// directory instead of one entry's assets.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return pkgerrors.NewValidationError("id", id, "not usable as an asset name")
	}
	return nil
}

func rename(from, to string) error {
	if _, err := os.Stat(from); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(to), constants.DirPermissions); err != nil {
		return pkgerrors.WrapIO("create", filepath.Dir(to), err)
	}
	if err := os.RemoveAll(to); err != nil {
		return pkgerrors.WrapIO("delete", to, err)
	}
	if err := os.Rename(from, to); err != nil {
		return pkgerrors.WrapIO("rename", from, err)
	}
	return nil
}

func remove(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return pkgerrors.WrapIO("delete", p, err)
	}
	return nil
}
