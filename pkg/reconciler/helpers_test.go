package reconciler_test

import (
	"context"
	"errors"
	"sync"

	"github.com/modelshelf/modelshelf/pkg/telegram"
)

const channelID = int64(-1001234)

var channel = &telegram.Chat{ID: channelID, Username: "shelf"}

func doc(id int64, fileID, fileName string) *telegram.Message {
	return &telegram.Message{
		MessageID: id,
		Chat:      channel,
		Document:  &telegram.Document{FileID: fileID, FileName: fileName},
	}
}

func photo(id int64, replyTo *telegram.Message, caption, imageID string) *telegram.Message {
	return &telegram.Message{
		MessageID: id,
		Chat:      channel,
		Caption:   caption,
		Photo: []telegram.PhotoSize{
			{FileID: imageID + "-small", Width: 90, Height: 90},
			{FileID: imageID, Width: 1280, Height: 720},
		},
		ReplyToMessage: replyTo,
	}
}

func post(updateID int64, m *telegram.Message) telegram.Update {
	return telegram.Update{UpdateID: updateID, ChannelPost: m}
}

// fakeDeleter records deletions and fails for ids listed in failing.
type fakeDeleter struct {
	mu      sync.Mutex
	deleted []int64
	failing map[int64]bool
}

func (f *fakeDeleter) DeleteMessage(_ context.Context, _ int64, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[messageID] {
		return errors.New("message can't be deleted")
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}
