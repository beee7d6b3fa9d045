package http

import (
	"net/http"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/transport"
)

// handleListComments handles GET /api/v1/comments. Only published comments
// are listed.
func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	page, err := transport.ParsePage(r)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	comments, err := h.store.ListComments(r.Context(), page)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comments)
}

// handleCreateComment handles POST /api/v1/comments.
func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req api.NewComment
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}
	if verr := req.Validate(); verr != nil {
		transport.WriteError(w, r, h.logger, verr)
		return
	}

	comment, err := h.store.CreateComment(r.Context(), req)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comment)
}

// handleGetComment handles GET /api/v1/comments/{id}.
func (h *Handler) handleGetComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	comment, err := h.store.GetComment(r.Context(), id)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comment)
}

// handleUpdateComment handles PUT /api/v1/comments/{id}.
func (h *Handler) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	var upd api.UpdatedComment
	if err := decodeJSON(r, &upd); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	comment, err := h.store.UpdateComment(r.Context(), id, upd)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comment)
}

// handleDeleteComment handles DELETE /api/v1/comments/{id}.
func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.store.DeleteComment(r.Context(), id); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
