package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modelshelf/modelshelf/internal/server/response"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/ops"
)

// editRequest is the body of an edit request.
type editRequest struct {
	Name  string   `json:"name"`
	Tags  ops.Tags `json:"tags"`
	NewID string   `json:"new_id"`
}

// accepted is the data of every accepted request.
type accepted struct {
	Accepted   bool     `json:"accepted"`
	Operations []string `json:"operations,omitempty"`
}

// HandleSync handles POST /v1/sync.
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	h.trigger.Nudge()
	logging.FromContext(r.Context()).Info().Msg("Sync requested")
	response.Accepted(w, accepted{Accepted: true})
}

// HandleDelete handles POST /v1/entries/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, ops.Delete(chi.URLParam(r, "id")))
}

// HandleEdit handles POST /v1/entries/{id}/edit.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := h.decode(w, r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	op := ops.Edit(chi.URLParam(r, "id"), req.Name, req.Tags)
	op.NewID = req.NewID
	h.enqueue(w, r, op)
}

// HandleBatch handles POST /v1/batch.
func (h *Handlers) HandleBatch(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	batch, err := ops.ParseBatch(data)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	h.enqueue(w, r, batch.Operations...)
}

func (h *Handlers) enqueue(w http.ResponseWriter, r *http.Request, list ...ops.Op) {
	queued, err := h.queue.Enqueue(list...)
	if err != nil {
		logging.FromContext(r.Context()).Warn().Err(err).Int("operations", len(list)).Msg("Operations rejected")
		response.ErrorFromType(w, err)
		return
	}

	ids := make([]string, len(queued))
	for i, op := range queued {
		ids[i] = op.ID
	}
	logging.FromContext(r.Context()).Info().Strs("operations", ids).Msg("Operations queued")
	h.trigger.Nudge()
	response.Accepted(w, accepted{Accepted: true, Operations: ids})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return pkgerrors.WrapParse("json", "", err)
	}
	return nil
}
