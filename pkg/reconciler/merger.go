package reconciler

import (
	"context"
	"strconv"

	"github.com/modelshelf/modelshelf/internal/utils/ptr"
	"github.com/modelshelf/modelshelf/pkg/catalog"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/outcome"
	"github.com/modelshelf/modelshelf/pkg/telegram"
)

// Skip reasons.
const (
	ReasonNoDocument   = "no backing document"
	ReasonNoPhotoSizes = "no photo sizes"
	ReasonStalePhoto   = "stale photo"
)

// create appends a new entry for c.
func (r *Reconciler) create(ctx context.Context, cat *catalog.Catalog, c *Candidate) PhotoResult {
	docID := c.DocMessageID()
	id := uniqueID(cat, baseID(c, docID), docID)

	e := &catalog.Entry{
		ID:             id,
		Name:           c.Caption.Name,
		Tags:           c.Caption.Tags,
		FileID:         c.DocFileID(),
		ImageID:        c.Best.FileID,
		DocMessageID:   ptr.Int64(docID),
		PhotoMessageID: ptr.Int64(c.Photo.MessageID),
		DownloadURL:    permalink(c, docID),
		DirectURL:      catalog.DirectURLFor(id, c.Document.Document.FileName),
	}
	cat.Append(e)

	logging.FromContext(ctx).Info().
		Str("entry_id", id).
		Int64("doc_message_id", docID).
		Msg("Entry created")

	return PhotoResult{
		MessageID: c.Photo.MessageID,
		EntryID:   id,
		Action:    ActionCreated,
		Outcome:   outcome.OK(),
	}
}

// update merges c into res.Canonical and removes the entries it supersedes.
func (r *Reconciler) update(ctx context.Context, cat *catalog.Catalog, c *Candidate, res Resolution, result *Result) PhotoResult {
	e := res.Canonical
	pr := PhotoResult{MessageID: c.Photo.MessageID, EntryID: e.ID, MatchedBy: res.MatchedBy}
	logger := logging.FromContext(logging.WithEntry(ctx, e.ID))

	if c.Photo.MessageID < e.PhotoRef() {
		logger.Debug().
			Int64("stored_photo", e.PhotoRef()).
			Msg("Photo older than the stored one, skipping")
		pr.Action = ActionNone
		pr.Outcome = outcome.Skipped(ReasonStalePhoto)
		return pr
	}

	prevDoc, prevPhoto := e.DocRef(), e.PhotoRef()

	if c.Caption.HasName {
		e.Name = c.Caption.Name
	}
	if c.Caption.HasTags {
		e.Tags = c.Caption.Tags
	}

	if e.ImageID != c.Best.FileID {
		if e.ImageID != "" {
			result.ImageChanged = append(result.ImageChanged, e.ID)
		}
		e.ImageID = c.Best.FileID
	}
	e.PhotoMessageID = ptr.Int64(c.Photo.MessageID)

	if docID := c.DocMessageID(); docID != 0 && docID >= prevDoc {
		if fileID := c.DocFileID(); e.FileID != fileID {
			if e.FileID != "" {
				result.FileChanged = append(result.FileChanged, FileChange{
					EntryID:      e.ID,
					OldFileID:    e.FileID,
					OldDirectURL: e.DirectURL,
				})
			}
			e.FileID = fileID
			e.DirectURL = catalog.DirectURLFor(e.ID, c.Document.Document.FileName)
		}
		e.DocMessageID = ptr.Int64(docID)
		e.DownloadURL = permalink(c, docID)
	}
	if e.DirectURL == "" && c.Document != nil {
		e.DirectURL = catalog.DirectURLFor(e.ID, c.Document.Document.FileName)
	}

	removed := r.removeDuplicates(cat, e, res.Duplicates)
	result.Removed = append(result.Removed, removed...)
	for _, d := range removed {
		logger.Info().Str("duplicate_id", d.ID).Msg("Duplicate entry removed")
	}

	if prevDoc != 0 && prevDoc != e.DocRef() {
		result.Retirements = append(result.Retirements, r.retire(ctx, prevDoc))
	}
	if prevPhoto != 0 && prevPhoto != e.PhotoRef() {
		result.Retirements = append(result.Retirements, r.retire(ctx, prevPhoto))
	}

	logger.Info().
		Str("matched_by", res.MatchedBy).
		Int64("photo_message_id", c.Photo.MessageID).
		Msg("Entry updated")

	pr.Action = ActionUpdated
	pr.Outcome = outcome.OK()
	return pr
}

// removeDuplicates drops the resolver's duplicates and every other entry
// that shares the file identity or document message with e.
func (r *Reconciler) removeDuplicates(cat *catalog.Catalog, e *catalog.Entry, dups []*catalog.Entry) []*catalog.Entry {
	drop := make(map[*catalog.Entry]bool, len(dups))
	for _, d := range dups {
		drop[d] = true
	}
	return cat.RemoveFunc(func(other *catalog.Entry) bool {
		if other == e {
			return false
		}
		if drop[other] {
			return true
		}
		return (e.FileID != "" && other.FileID == e.FileID) ||
			(e.DocRef() != 0 && other.DocRef() == e.DocRef())
	})
}

func (r *Reconciler) retire(ctx context.Context, messageID int64) Retirement {
	return Retirement{
		ChatID:    r.channelID,
		MessageID: messageID,
		Outcome:   r.retirer.Retire(ctx, r.channelID, messageID),
	}
}

// baseID returns the candidate slug, falling back to the document message id.
func baseID(c *Candidate, docID int64) string {
	if c.Slug != "" {
		return c.Slug
	}
	return strconv.FormatInt(docID, 10)
}

// uniqueID disambiguates id against the catalog: first with the document
// message id, then with a numeric suffix.
func uniqueID(cat *catalog.Catalog, id string, docID int64) string {
	if !cat.Has(id) {
		return id
	}
	base := id + "-" + strconv.FormatInt(docID, 10)
	candidate := base
	for n := 2; cat.Has(candidate); n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	return candidate
}

// permalink links to the document message, using the chat of the document
// when known and the photo's chat otherwise.
func permalink(c *Candidate, docID int64) string {
	chat := c.Photo.Chat
	if c.Document != nil && c.Document.Chat != nil {
		chat = c.Document.Chat
	}
	if chat == nil {
		chat = &telegram.Chat{}
	}
	return catalog.Permalink(chat.Username, chat.ID, docID)
}
