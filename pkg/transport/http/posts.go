package http

import (
	"net/http"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/transport"
)

// handleListPosts handles GET /api/v1/posts.
func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := transport.ParsePage(r)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	posts, err := h.store.ListPosts(r.Context(), page)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, posts)
}

// handleCreatePost handles POST /api/v1/posts.
func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req api.NewPost
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}
	if verr := req.Validate(); verr != nil {
		transport.WriteError(w, r, h.logger, verr)
		return
	}

	post, err := h.store.CreatePost(r.Context(), req)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, post)
}

// handleGetPost handles GET /api/v1/posts/{id}.
func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	post, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, post)
}

// handleUpdatePost handles PUT /api/v1/posts/{id}.
func (h *Handler) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	var upd api.UpdatedPost
	if err := decodeJSON(r, &upd); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	post, err := h.store.UpdatePost(r.Context(), id, upd)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, post)
}

// handleDeletePost handles DELETE /api/v1/posts/{id}.
func (h *Handler) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.store.DeletePost(r.Context(), id); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListPostComments handles GET /api/v1/posts/{id}/comments.
func (h *Handler) handleListPostComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	comments, err := h.store.ListPostComments(r.Context(), id)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comments)
}

// handleGetPostComment handles GET /api/v1/posts/{id}/comments/{commentID}.
func (h *Handler) handleGetPostComment(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}
	commentID, err := pathID(r, "commentID")
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	comment, err := h.store.GetPostComment(r.Context(), postID, commentID)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comment)
}
