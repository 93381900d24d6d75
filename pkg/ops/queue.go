package ops

import (
	"encoding/json"
	"errors"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/modelshelf/modelshelf/internal/fsutil"
	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/pkg/constants"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
)

// Queue is a file backed FIFO of ops accepted by the trigger surface. Every
// mutation rewrites the snapshot file, so a restart keeps pending ops.
type Queue struct {
	path     string
	capacity int

	mu    sync.Mutex
	items []Op
}

type queueState struct {
	Items []Op `json:"items"`
}

// NewQueue opens the queue stored at path, loading any pending ops.
func NewQueue(path string, capacity int) (*Queue, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, pkgerrors.NewValidationError("path", path, "queue path is required")
	}
	if capacity <= 0 {
		capacity = constants.MaxQueueSize
	}
	q := &Queue{path: path, capacity: capacity, items: []Op{}}
	if err := q.load(); err != nil {
		return nil, err
	}
	metrics.QueueDepth.Set(float64(len(q.items)))
	return q, nil
}

// Path returns the snapshot file path.
func (q *Queue) Path() string {
	return q.path
}

// Enqueue validates and appends ops, assigning ids and timestamps. Either
// every op is queued or none is.
func (q *Queue) Enqueue(ops ...Op) ([]Op, error) {
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, err
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items)+len(ops) > q.capacity {
		return nil, pkgerrors.ErrQueueFull
	}

	now := utc.Now()
	queued := make([]Op, len(ops))
	for i, op := range ops {
		op.ID = uuid.NewString()
		op.QueuedAt = now
		queued[i] = op
	}

	n := len(q.items)
	q.items = append(q.items, queued...)
	if err := q.saveLocked(); err != nil {
		q.items = q.items[:n]
		return nil, err
	}
	metrics.QueueDepth.Set(float64(len(q.items)))
	return queued, nil
}

// Pending returns a copy of the queued ops in order.
func (q *Queue) Pending() []Op {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

// Len returns the number of queued ops.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ack removes the ops with the given ids.
func (q *Queue) Ack(ids ...string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	prev := q.items
	q.items = slices.DeleteFunc(slices.Clone(q.items), func(op Op) bool { return drop[op.ID] })
	if len(q.items) == len(prev) {
		return nil
	}
	if err := q.saveLocked(); err != nil {
		q.items = prev
		return err
	}
	metrics.QueueDepth.Set(float64(len(q.items)))
	return nil
}

func (q *Queue) load() error {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return pkgerrors.WrapIO("read", q.path, err)
	}
	var st queueState
	if err := json.Unmarshal(data, &st); err != nil {
		return pkgerrors.WrapParse("json", q.path, err)
	}
	if len(st.Items) > q.capacity {
		q.items = slices.Clone(st.Items[len(st.Items)-q.capacity:])
		return q.saveLocked()
	}
	q.items = slices.Clone(st.Items)
	return nil
}

func (q *Queue) saveLocked() error {
	items := q.items
	if items == nil {
		items = []Op{}
	}
	data, err := json.MarshalIndent(queueState{Items: items}, "", "  ")
	if err != nil {
		return pkgerrors.WrapParse("json", q.path, err)
	}
	return fsutil.WriteFile(q.path, data)
}
