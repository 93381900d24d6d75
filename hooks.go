package modelshelf

import (
	"reflect"
	"sync"

	"github.com/modelshelf/modelshelf/pkg/catalog"
)

// Hook function types for entry events
type (
	// EntryAddedHook is called when an entry is added to the catalog
	EntryAddedHook func(entry catalog.Entry)

	// EntryUpdatedHook is called when an entry is changed in place
	EntryUpdatedHook func(old, new catalog.Entry)

	// EntryRemovedHook is called when an entry is removed from the catalog
	EntryRemovedHook func(entry catalog.Entry)
)

// hooks manages event callbacks for catalog changes
type hooks struct {
	mu             sync.RWMutex
	onEntryAdded   []EntryAddedHook
	onEntryUpdated []EntryUpdatedHook
	onEntryRemoved []EntryRemovedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnEntryAdded registers a callback for when entries are added
func (h *hooks) OnEntryAdded(fn EntryAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryAdded = append(h.onEntryAdded, fn)
}

// OnEntryUpdated registers a callback for when entries are updated
func (h *hooks) OnEntryUpdated(fn EntryUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryUpdated = append(h.onEntryUpdated, fn)
}

// OnEntryRemoved registers a callback for when entries are removed
func (h *hooks) OnEntryRemoved(fn EntryRemovedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryRemoved = append(h.onEntryRemoved, fn)
}

// trigger compares two catalog snapshots by entry id and fires the
// matching hooks. A renamed entry shows up as a removal plus an addition.
func (h *hooks) trigger(before, after *catalog.Catalog) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.onEntryAdded)+len(h.onEntryUpdated)+len(h.onEntryRemoved) == 0 {
		return
	}

	old := make(map[string]*catalog.Entry, before.Len())
	for _, e := range before.Entries() {
		old[e.ID] = e
	}
	current := make(map[string]bool, after.Len())

	for _, e := range after.Entries() {
		current[e.ID] = true
		prev, exists := old[e.ID]
		switch {
		case !exists:
			for _, hook := range h.onEntryAdded {
				hook(*e.Clone())
			}
		case !reflect.DeepEqual(prev.Clone(), e.Clone()):
			for _, hook := range h.onEntryUpdated {
				hook(*prev.Clone(), *e.Clone())
			}
		}
	}

	for _, e := range before.Entries() {
		if !current[e.ID] {
			for _, hook := range h.onEntryRemoved {
				hook(*e.Clone())
			}
		}
	}
}
