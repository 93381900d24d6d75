package reconciler

import (
	"context"

	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/outcome"
)

// MessageDeleter deletes channel messages. *telegram.Client implements it.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Retirer retires superseded channel messages.
type Retirer interface {
	Retire(ctx context.Context, chatID, messageID int64) outcome.Outcome
}

// Retirement records one retired message.
type Retirement struct {
	ChatID    int64           `json:"chat_id"`
	MessageID int64           `json:"message_id"`
	Outcome   outcome.Outcome `json:"outcome"`
}

// ChannelRetirer deletes superseded messages through a MessageDeleter.
// Failures are logged and reported, never returned as errors.
type ChannelRetirer struct {
	deleter MessageDeleter
}

// NewChannelRetirer creates a ChannelRetirer.
func NewChannelRetirer(d MessageDeleter) *ChannelRetirer {
	return &ChannelRetirer{deleter: d}
}

// Retire deletes messageID from chatID.
func (r *ChannelRetirer) Retire(ctx context.Context, chatID, messageID int64) outcome.Outcome {
	if r == nil || r.deleter == nil {
		return outcome.Skipped("no message deleter")
	}
	if messageID == 0 {
		return outcome.Skipped("no message id")
	}

	logger := logging.FromContext(logging.WithMessage(ctx, messageID))
	if err := r.deleter.DeleteMessage(ctx, chatID, messageID); err != nil {
		metrics.Retirements.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to retire channel message")
		return outcome.Failed(err)
	}
	metrics.Retirements.WithLabelValues("ok").Inc()
	logger.Info().Int64("chat_id", chatID).Msg("Retired channel message")
	return outcome.OK()
}

// NopRetirer skips every retirement. It is used for dry runs.
type NopRetirer struct{}

// Retire implements Retirer.
func (NopRetirer) Retire(context.Context, int64, int64) outcome.Outcome {
	return outcome.Skipped("dry run")
}

var (
	_ Retirer = (*ChannelRetirer)(nil)
	_ Retirer = NopRetirer{}
)
