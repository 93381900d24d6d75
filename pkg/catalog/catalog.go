// Package catalog holds the model catalog: an ordered list of entries, its
// JSON persistence and the sync state carried between runs.
//
// A Catalog is owned by a single run and is not safe for concurrent use.
package catalog

import "slices"

// Catalog is an ordered sequence of entries. Order is preserved across
// load, mutation and save.
type Catalog struct {
	entries []*Entry
}

// New creates a catalog holding the given entries in order.
func New(entries ...*Entry) *Catalog {
	c := &Catalog{entries: make([]*Entry, 0, len(entries))}
	for _, e := range entries {
		if e != nil {
			c.entries = append(c.entries, e)
		}
	}
	return c
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the entries in order. The slice is a copy; the entries
// are shared.
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// At returns the entry at index i.
func (c *Catalog) At(i int) *Entry {
	return c.entries[i]
}

// Find returns the first entry with the given id.
func (c *Catalog) Find(id string) (*Entry, bool) {
	if i := c.IndexOf(id); i >= 0 {
		return c.entries[i], true
	}
	return nil, false
}

// IndexOf returns the index of the first entry with the given id, or -1.
func (c *Catalog) IndexOf(id string) int {
	return slices.IndexFunc(c.entries, func(e *Entry) bool { return e.ID == id })
}

// Index returns the position of e (by identity), or -1.
func (c *Catalog) Index(e *Entry) int {
	return slices.Index(c.entries, e)
}

// Has reports whether any entry uses id.
func (c *Catalog) Has(id string) bool {
	return c.IndexOf(id) >= 0
}

// Append adds an entry at the end.
func (c *Catalog) Append(e *Entry) {
	c.entries = append(c.entries, e)
}

// RemoveAt removes and returns the entry at index i.
func (c *Catalog) RemoveAt(i int) *Entry {
	e := c.entries[i]
	c.entries = slices.Delete(c.entries, i, i+1)
	return e
}

// RemoveFunc removes every entry for which fn returns true and returns the
// removed entries in their original order.
func (c *Catalog) RemoveFunc(fn func(*Entry) bool) []*Entry {
	var removed []*Entry
	kept := c.entries[:0]
	for _, e := range c.entries {
		if fn(e) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	clear(c.entries[len(kept):])
	c.entries = kept
	return removed
}

// Replace swaps the whole entry list.
func (c *Catalog) Replace(entries []*Entry) {
	c.entries = slices.Clone(entries)
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{entries: make([]*Entry, len(c.entries))}
	for i, e := range c.entries {
		out.entries[i] = e.Clone()
	}
	return out
}

// IDs returns the entry ids in order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}
