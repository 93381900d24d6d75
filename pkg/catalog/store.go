package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/modelshelf/modelshelf/internal/fsutil"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/logging"
)

// Store persists a catalog as an indented JSON array. Every save is a full
// overwrite. When a mirror path is set the same bytes are written there too.
type Store struct {
	path   string
	mirror string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMirror also writes the catalog to path on every save.
func WithMirror(path string) StoreOption {
	return func(s *Store) {
		s.mirror = path
	}
}

// NewStore creates a store for the catalog document at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the primary catalog path.
func (s *Store) Path() string {
	return s.path
}

// MirrorPath returns the mirror path, or "" when mirroring is disabled.
func (s *Store) MirrorPath() string {
	return s.mirror
}

// Read loads the catalog, reporting any read or decode error. A missing
// file yields an empty catalog and no error.
func (s *Store) Read() (*Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return New(), pkgerrors.WrapIO("read", s.path, err)
	}
	return Decode(data, s.path)
}

// Load reads the catalog. Unreadable or corrupt files are logged and
// treated as an empty catalog.
func (s *Store) Load(ctx context.Context) *Catalog {
	c, err := s.Read()
	if err != nil {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("path", s.path).
			Msg("Catalog unreadable, starting from an empty catalog")
		return New()
	}
	logging.FromContext(ctx).Debug().
		Str("path", s.path).
		Int("entries", c.Len()).
		Msg("Catalog loaded")
	return c
}

// Save overwrites the catalog file and its mirror.
func (s *Store) Save(ctx context.Context, c *Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return pkgerrors.WrapResource("encode", "catalog", "", err)
	}

	if err := fsutil.WriteFile(s.path, data); err != nil {
		return pkgerrors.WrapResource("save", "catalog", "", err)
	}

	if s.mirror != "" && s.mirror != s.path {
		if err := fsutil.WriteFile(s.mirror, data); err != nil {
			return pkgerrors.WrapResource("save", "catalog mirror", "", err)
		}
	}

	logging.FromContext(ctx).Debug().
		Str("path", s.path).
		Str("mirror", s.mirror).
		Int("entries", c.Len()).
		Msg("Catalog saved")
	return nil
}

// Decode parses a JSON catalog document. name is used in error messages.
func Decode(data []byte, name string) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}
	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return New(), pkgerrors.WrapParse("json", name, err)
	}
	for _, e := range entries {
		if e != nil && e.Tags == nil {
			e.Tags = []string{}
		}
	}
	return New(entries...), nil
}

// Encode renders the catalog as a 2-space indented JSON array.
func Encode(c *Catalog) ([]byte, error) {
	entries := c.Entries()
	if entries == nil {
		entries = []*Entry{}
	}
	for i, e := range entries {
		if e.Tags == nil {
			cp := *e
			cp.Tags = []string{}
			entries[i] = &cp
		}
	}
	return json.MarshalIndent(entries, "", "  ")
}
