// Package ops implements the operator operations on the catalog (delete
// and edit), their batch wire format and the pending queue that holds them
// until the next sync run.
package ops

import (
	"encoding/json"
	"strings"

	"github.com/agentstation/utc"

	"github.com/modelshelf/modelshelf/pkg/caption"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/slug"
)

// Kind is the operation kind.
type Kind string

// Operation kinds.
const (
	KindDelete Kind = "delete"
	KindEdit   Kind = "edit"
)

// Op is one operator operation.
type Op struct {
	// ID is assigned when the op is queued.
	ID   string `json:"id,omitempty"`
	Kind Kind   `json:"kind"`
	// Target is the entry id. Deletes also accept the entry name.
	Target string `json:"target"`
	// Name is the new display name of an edit.
	Name string `json:"name,omitempty"`
	// Tags replace the stored tags of an edit when non-empty.
	Tags Tags `json:"tags,omitempty"`
	// NewID optionally renames the entry of an edit.
	NewID string `json:"new_id,omitempty"`

	QueuedAt utc.Time `json:"queued_at"`
}

// Delete returns a delete op for target.
func Delete(target string) Op {
	return Op{Kind: KindDelete, Target: target}
}

// Edit returns an edit op for the entry id.
func Edit(id, name string, tags []string) Op {
	return Op{Kind: KindEdit, Target: id, Name: name, Tags: tags}
}

// Validate checks the op independently of any catalog.
func (o Op) Validate() error {
	if strings.TrimSpace(o.Target) == "" {
		return pkgerrors.NewValidationError("target", o.Target, "is required")
	}
	switch o.Kind {
	case KindDelete:
		return nil
	case KindEdit:
		if strings.TrimSpace(o.Name) == "" {
			return pkgerrors.NewValidationError("name", o.Name, "is required")
		}
		if o.NewID != "" && slug.Make(o.NewID) != o.NewID {
			return pkgerrors.NewValidationError("new_id", o.NewID, "must be a slug such as "+quote(slug.Make(o.NewID)))
		}
		return nil
	default:
		return pkgerrors.NewValidationError("kind", o.Kind, "must be delete or edit")
	}
}

// String describes the op for logs and CLI output.
func (o Op) String() string {
	s := string(o.Kind) + " " + o.Target
	if o.NewID != "" {
		s += " -> " + o.NewID
	}
	return s
}

// Tags is a tag list that also decodes from a comma separated string.
type Tags []string

// UnmarshalJSON accepts ["a","b"] or "a, b".
func (t *Tags) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = caption.SplitTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	out := make([]string, 0, len(list))
	for _, tag := range list {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	*t = out
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}
