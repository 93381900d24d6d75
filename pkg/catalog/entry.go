package catalog

import (
	"path"
	"slices"

	"github.com/modelshelf/modelshelf/internal/utils/ptr"
)

// Entry is one published model. The JSON field names are read by the static
// web UI and must not change.
type Entry struct {
	// ID is the stable slug-derived primary key.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Tags is replaced wholesale on update.
	Tags []string `json:"tags"`

	// FileID is the transport token of the downloadable document.
	FileID string `json:"file_id_doc"`
	// ImageID is the transport token of the preview photo.
	ImageID string `json:"file_id_image"`

	// DocMessageID is the channel message that supplied the document.
	DocMessageID *int64 `json:"doc_message_id"`
	// PhotoMessageID is the channel message that supplied the latest photo.
	PhotoMessageID *int64 `json:"photo_message_id"`

	// DownloadURL is a permalink to the source post.
	DownloadURL string `json:"downloadUrl"`
	// DirectURL is the materialized file, relative to the data dir:
	// files/<id>/<file name>.
	DirectURL string `json:"directUrl"`
}

// DocRef returns the document message id, or 0 when unknown.
func (e *Entry) DocRef() int64 {
	return ptr.Deref(e.DocMessageID)
}

// PhotoRef returns the photo message id, or 0 when unknown.
func (e *Entry) PhotoRef() int64 {
	return ptr.Deref(e.PhotoMessageID)
}

// Recency is the newest message id backing the entry.
func (e *Entry) Recency() int64 {
	return max(e.DocRef(), e.PhotoRef())
}

// FileName returns the base name of the materialized file, or "" when the
// entry has no local file locator.
func (e *Entry) FileName() string {
	if e.DirectURL == "" {
		return ""
	}
	return path.Base(e.DirectURL)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Tags = slices.Clone(e.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.DocMessageID = ptr.Clone(e.DocMessageID)
	c.PhotoMessageID = ptr.Clone(e.PhotoMessageID)
	return &c
}

// DirectURLFor builds the local file locator for an id and file name.
// Directory components of fileName are dropped.
func DirectURLFor(id, fileName string) string {
	fileName = path.Base(fileName)
	switch fileName {
	case ".", "..", "/":
		fileName = id
	}
	return path.Join("files", id, fileName)
}
