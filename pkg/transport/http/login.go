package http

import (
	"net/http"
	"strings"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/auth"
	"github.com/plume-dev/plume/pkg/observability"
	"github.com/plume-dev/plume/pkg/transport"
)

// handleLogin handles POST /api/v1/login. Credentials arrive either as JSON
// or as form fields; a successful exchange issues and persists a fresh token.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLoginRequest(r)
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}
	if verr := req.Validate(); verr != nil {
		transport.WriteError(w, r, h.logger, verr)
		return
	}

	identity, err := h.authn.Authenticate(r.Context(), auth.BasicClaim{
		Login:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(r.Context(), api.User{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
	})
	if err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}

	observability.TokensIssuedTotal.Inc()
	h.writeJSON(w, http.StatusOK, api.LoginResponse{Token: token.Value})
}

// decodeLoginRequest reads credentials from either a form-encoded or a JSON
// body, keyed on the Content-Type header.
func decodeLoginRequest(r *http.Request) (api.LoginRequest, error) {
	var req api.LoginRequest

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return req, &api.ValidationError{Param: "body", Message: "invalid form body"}
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
		return req, nil
	}

	if err := decodeJSON(r, &req); err != nil {
		return req, err
	}
	return req, nil
}
