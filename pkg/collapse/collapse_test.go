package collapse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelshelf/modelshelf/internal/utils/ptr"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/collapse"
)

func entry(id, file string, doc, photo int64) *catalog.Entry {
	e := &catalog.Entry{ID: id, Name: id, Tags: []string{}, FileID: file}
	if doc != 0 {
		e.DocMessageID = ptr.Int64(doc)
	}
	if photo != 0 {
		e.PhotoMessageID = ptr.Int64(photo)
	}
	return e
}

func TestCollapseBySourceDocument(t *testing.T) {
	cat := catalog.New(
		entry("fox", "A", 10, 11),
		entry("fox-renamed", "A2", 10, 20),
		entry("wolf", "W", 30, 31),
	)

	res := collapse.Collapse(context.Background(), cat)

	assert.Equal(t, []string{"fox-renamed", "wolf"}, cat.IDs())
	require.Len(t, res.Removed, 1)
	assert.Equal(t, "fox", res.Removed[0].ID)
	assert.Equal(t, []string{"fox"}, res.Orphaned)
}

func TestCollapseUsesPermalinkWhenDocRefMissing(t *testing.T) {
	legacy := entry("fox", "A", 0, 11)
	legacy.DownloadURL = "https://t.me/shelf/10"
	cat := catalog.New(legacy, entry("fox-2", "B", 10, 12))

	res := collapse.Collapse(context.Background(), cat)

	assert.Equal(t, []string{"fox-2"}, cat.IDs())
	assert.Equal(t, []string{"fox"}, res.Orphaned)
}

func TestCollapsePermalinkCountsTowardsRecency(t *testing.T) {
	legacy := entry("fox-legacy", "A", 0, 5)
	legacy.DownloadURL = "https://t.me/shelf/12"
	cat := catalog.New(entry("fox", "B", 12, 8), legacy)

	res := collapse.Collapse(context.Background(), cat)

	assert.Equal(t, []string{"fox-legacy"}, cat.IDs(), "permalink message 12 ties with the document, later entry wins")
	require.Len(t, res.Removed, 1)
	assert.Equal(t, "fox", res.Removed[0].ID)
}

func TestCollapseByFileIdentity(t *testing.T) {
	cat := catalog.New(
		entry("a", "SAME", 10, 50),
		entry("b", "SAME", 20, 21),
		entry("c", "", 0, 0),
		entry("d", "", 0, 0),
	)

	collapse.Collapse(context.Background(), cat)

	assert.Equal(t, []string{"a", "c", "d"}, cat.IDs(), "entries without file identity are never merged by file")
}

func TestCollapseByIDKeepsNewestAndTieGoesToLater(t *testing.T) {
	first := entry("fox", "A", 10, 11)
	second := entry("fox", "B", 11, 0)
	cat := catalog.New(first, second, entry("owl", "O", 40, 41))

	res := collapse.Collapse(context.Background(), cat)

	require.Equal(t, []string{"fox", "owl"}, cat.IDs())
	assert.Same(t, second, cat.At(0), "equal recency keeps the later entry")
	assert.Empty(t, res.Orphaned, "removed id is still used by the survivor")
	assert.Len(t, res.Removed, 1)
}

func TestCollapseKeepsFirstOccurrenceOrder(t *testing.T) {
	cat := catalog.New(
		entry("a", "A", 10, 11),
		entry("b", "B", 20, 21),
		entry("a-new", "A", 10, 99),
	)

	collapse.Collapse(context.Background(), cat)

	assert.Equal(t, []string{"a-new", "b"}, cat.IDs())
}

func TestCollapseIdempotent(t *testing.T) {
	cat := catalog.New(
		entry("a", "A", 10, 11),
		entry("a", "B", 12, 13),
		entry("c", "A", 14, 15),
		entry("d", "", 0, 0),
		entry("e", "E", 12, 2),
		entry("f", "", 16, 0),
	)

	collapse.Collapse(context.Background(), cat)
	once := cat.Clone()

	res := collapse.Collapse(context.Background(), cat)
	assert.False(t, res.Changed())
	assert.Equal(t, once.Entries(), cat.Entries())
}

func TestCollapseEmpty(t *testing.T) {
	cat := catalog.New()
	res := collapse.Collapse(context.Background(), cat)
	assert.False(t, res.Changed())
	assert.Equal(t, 0, cat.Len())
}
