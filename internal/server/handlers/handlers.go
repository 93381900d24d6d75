// Package handlers provides the HTTP handlers of the trigger server. The
// handlers only queue work; the catalog is mutated by the next sync run.
package handlers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/modelshelf/modelshelf/pkg/ops"
)

// Queue accepts operator ops for the next sync run.
type Queue interface {
	Enqueue(ops ...ops.Op) ([]ops.Op, error)
	Len() int
}

// Trigger requests a sync run as soon as possible.
type Trigger interface {
	Nudge()
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	queue        Queue
	trigger      Trigger
	logger       *zerolog.Logger
	maxBodyBytes int64
	startTime    time.Time
}

// New creates a Handlers instance.
func New(queue Queue, trigger Trigger, logger *zerolog.Logger, maxBodyBytes int64) *Handlers {
	return &Handlers{
		queue:        queue,
		trigger:      trigger,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
		startTime:    time.Now(),
	}
}
