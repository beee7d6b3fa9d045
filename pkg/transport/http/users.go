package http

import (
	"net/http"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/transport"
)

// handleListUsers handles GET /api/v1/users.
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := transport.ParsePage(r)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	users, err := h.store.ListUsers(r.Context(), page)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, users)
}

// handleCreateUser handles POST /api/v1/users (signup). The plaintext
// password never reaches the store; it is hashed here.
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.NewUser
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}
	if verr := req.Validate(); verr != nil {
		transport.WriteError(w, r, h.logger, verr)
		return
	}

	digest, err := h.verifier.Hash(req.Password)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), api.User{
		Name:           req.Name,
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: digest,
	})
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

// handleGetUser handles GET /api/v1/users/{id}.
func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser handles PUT /api/v1/users/{id}.
func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	var upd api.UpdatedUser
	if err := decodeJSON(r, &upd); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser handles DELETE /api/v1/users/{id}.
func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListUserComments handles GET /api/v1/users/{id}/comments.
func (h *Handler) handleListUserComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	comments, err := h.store.ListUserComments(r.Context(), id)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comments)
}
