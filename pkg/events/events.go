// Package events turns raw channel updates into the two collections the
// reconciler works on: documents keyed by message id and photo posts that
// reply to another message.
package events

import (
	"github.com/modelshelf/modelshelf/pkg/telegram"
)

// Batch is the normalized view of one page run of updates.
type Batch struct {
	// Documents maps message id to the latest version of a document post.
	Documents map[int64]*telegram.Message
	// Photos are photo posts replying to another message, in arrival order.
	Photos []*telegram.Message
}

// Document returns the document message with the given id from the batch.
func (b *Batch) Document(messageID int64) (*telegram.Message, bool) {
	m, ok := b.Documents[messageID]
	return m, ok
}

// Normalize filters updates down to messages posted in channelID and sorts
// them into documents and photo replies. A later edit of a document replaces
// the earlier version. An edited photo reply is processed again at its
// position in the feed.
func Normalize(updates []telegram.Update, channelID int64) *Batch {
	b := &Batch{Documents: make(map[int64]*telegram.Message)}
	for i := range updates {
		m := updates[i].Payload()
		if m == nil || m.Chat == nil || m.Chat.ID != channelID {
			continue
		}
		if m.Document != nil {
			b.Documents[m.MessageID] = m
		}
		if len(m.Photo) > 0 && m.ReplyToMessage != nil {
			b.Photos = append(b.Photos, m)
		}
	}
	return b
}
