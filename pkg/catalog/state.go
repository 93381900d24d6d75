package catalog

import (
	"context"
	"errors"
	"os"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/modelshelf/modelshelf/internal/fsutil"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/logging"
)

// State is carried between runs.
type State struct {
	// LastUpdateID is the offset to request on the next run: the last
	// processed update id plus one.
	LastUpdateID int64 `yaml:"last_update_id"`
	// LastRunAt is when the state was last persisted.
	LastRunAt utc.Time `yaml:"last_run_at"`
}

// StateStore persists State as YAML.
type StateStore struct {
	path string
}

// NewStateStore creates a state store at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the state. A missing or corrupt file yields the zero state.
func (s *StateStore) Load(ctx context.Context) State {
	var st State
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn().Err(err).Str("path", s.path).Msg("Sync state unreadable, starting from offset 0")
		}
		return State{}
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("path", s.path).Msg("Sync state corrupt, starting from offset 0")
		return State{}
	}
	return st
}

// Save overwrites the state file, stamping LastRunAt.
func (s *StateStore) Save(st State) error {
	st.LastRunAt = utc.Now()
	data, err := yaml.Marshal(st)
	if err != nil {
		return pkgerrors.WrapParse("yaml", s.path, err)
	}
	return fsutil.WriteFile(s.path, data)
}
