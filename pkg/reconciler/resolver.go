package reconciler

import (
	"cmp"
	"slices"

	"github.com/modelshelf/modelshelf/pkg/caption"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/events"
	"github.com/modelshelf/modelshelf/pkg/slug"
	"github.com/modelshelf/modelshelf/pkg/telegram"
)

// Candidate is a photo post together with everything resolved about it.
type Candidate struct {
	// Photo is the photo post.
	Photo *telegram.Message
	// Replied is the message the photo replies to, taken from the batch when
	// available.
	Replied *telegram.Message
	// Document is the replied-to message when it carries a document.
	Document *telegram.Message
	// Best is the largest photo variant.
	Best *telegram.PhotoSize
	// Caption is the parsed caption.
	Caption caption.Parsed
	// Slug is derived from the parsed name and may be empty.
	Slug string

	// fileGuard is the file identity the slug matcher must agree with.
	fileGuard string
}

// NewCandidate resolves the document behind photo and parses its caption.
// Caption text comes from the photo, then the document, then the replied-to
// message. The document file name is the fallback name.
func NewCandidate(photo *telegram.Message, batch *events.Batch) *Candidate {
	c := &Candidate{Photo: photo, Best: telegram.LargestPhoto(photo.Photo)}

	replied := photo.ReplyToMessage
	if replied != nil {
		if doc, ok := batch.Document(replied.MessageID); ok {
			replied = doc
		}
		if replied.Document != nil {
			c.Document = replied
		}
	}
	c.Replied = replied

	text := photo.Caption
	fallback := ""
	if c.Document != nil {
		if text == "" {
			text = c.Document.Caption
		}
		fallback = c.Document.Document.FileName
	}
	if text == "" && photo.ReplyToMessage != nil {
		text = photo.ReplyToMessage.Caption
	}

	c.Caption = caption.Parse(text, fallback)
	c.Slug = slug.Make(c.Caption.Name)
	return c
}

// DocFileID returns the resolved document's file identity, or "".
func (c *Candidate) DocFileID() string {
	if c.Document == nil {
		return ""
	}
	return c.Document.Document.FileID
}

// DocMessageID returns the resolved document's message id, or 0.
func (c *Candidate) DocMessageID() int64 {
	if c.Document == nil {
		return 0
	}
	return c.Document.MessageID
}

// RepliedID returns the replied-to message id, or 0.
func (c *Candidate) RepliedID() int64 {
	if c.Replied == nil {
		return 0
	}
	return c.Replied.MessageID
}

// Matcher is one entry-matching predicate. Matchers sharing a Rank are
// evaluated together; lower ranks are consulted first.
type Matcher struct {
	Name  string
	Rank  int
	Match func(c *Candidate, e *catalog.Entry) bool
}

// Matcher names.
const (
	MatchFileIdentity = "file-identity"
	MatchDocumentRef  = "document-ref"
	MatchRepliedRef   = "replied-ref"
	MatchSlug         = "slug"
)

var (
	// FileIdentityMatcher matches the entry holding the document's file.
	FileIdentityMatcher = Matcher{Name: MatchFileIdentity, Match: func(c *Candidate, e *catalog.Entry) bool {
		id := c.DocFileID()
		return id != "" && e.FileID == id
	}}

	// DocumentRefMatcher matches the entry sourced from the document message.
	DocumentRefMatcher = Matcher{Name: MatchDocumentRef, Match: func(c *Candidate, e *catalog.Entry) bool {
		id := c.DocMessageID()
		return id != 0 && e.DocRef() == id
	}}

	// RepliedRefMatcher applies when the replied-to message carries no
	// document: it matches an entry whose document or photo message is the
	// replied-to message.
	RepliedRefMatcher = Matcher{Name: MatchRepliedRef, Rank: 1, Match: func(c *Candidate, e *catalog.Entry) bool {
		id := c.RepliedID()
		if c.Document != nil || id == 0 {
			return false
		}
		return e.DocRef() == id || e.PhotoRef() == id
	}}

	// SlugMatcher matches the entry whose id equals the derived slug, unless
	// that entry provably holds a different file.
	SlugMatcher = Matcher{Name: MatchSlug, Rank: 2, Match: func(c *Candidate, e *catalog.Entry) bool {
		if c.Slug == "" || e.ID != c.Slug {
			return false
		}
		return c.fileGuard == "" || e.FileID == "" || e.FileID == c.fileGuard
	}}
)

// DefaultMatchers returns the matchers in priority order.
func DefaultMatchers() []Matcher {
	return []Matcher{FileIdentityMatcher, DocumentRefMatcher, RepliedRefMatcher, SlugMatcher}
}

// Resolution is the resolver's verdict for one candidate.
type Resolution struct {
	// Canonical is the entry to update, or nil to create a new one.
	Canonical *catalog.Entry
	// MatchedBy names the matcher that found Canonical.
	MatchedBy string
	// Duplicates are the other entries matched by any key. They are removed
	// once Canonical is updated.
	Duplicates []*catalog.Entry
}

// Resolve evaluates matchers rank by rank against every entry. Within the
// first rank that hits, the earliest-indexed entry is canonical; every other
// distinct hit of any rank is a duplicate.
func Resolve(cat *catalog.Catalog, c *Candidate, matchers []Matcher) Resolution {
	var res Resolution
	seen := make(map[*catalog.Entry]bool)
	entries := cat.Entries()

	for _, rank := range ranks(matchers) {
		c.fileGuard = c.DocFileID()
		if c.fileGuard == "" && res.Canonical != nil {
			c.fileGuard = res.Canonical.FileID
		}
		for _, e := range entries {
			if seen[e] {
				continue
			}
			for _, m := range rank {
				if !m.Match(c, e) {
					continue
				}
				seen[e] = true
				if res.Canonical == nil {
					res.Canonical = e
					res.MatchedBy = m.Name
				} else {
					res.Duplicates = append(res.Duplicates, e)
				}
				break
			}
		}
	}
	return res
}

// ranks groups matchers by Rank in ascending order, keeping their relative
// order within a rank.
func ranks(matchers []Matcher) [][]Matcher {
	sorted := slices.Clone(matchers)
	slices.SortStableFunc(sorted, func(a, b Matcher) int { return cmp.Compare(a.Rank, b.Rank) })

	var out [][]Matcher
	for i, m := range sorted {
		if i == 0 || m.Rank != sorted[i-1].Rank {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], m)
	}
	return out
}
