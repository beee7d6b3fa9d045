package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/plume-dev/plume/pkg/auth"
	"github.com/plume-dev/plume/pkg/debug"
	"github.com/plume-dev/plume/pkg/observability"
	"github.com/plume-dev/plume/pkg/transport"
)

// requireAuth guards a handler behind the Authorization header protocol.
// The header is parsed into a claim, the claim is authenticated, and the
// resulting identity is stored in the request context. Errors pass to the
// mapper unchanged: a missing or malformed header is a 400, a rejected
// credential a 401, a verifier fault a 500.
func (h *Handler) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, err := auth.ParseAuthorizationHeader(r.Header.Get("Authorization"))
		if err != nil {
			observability.AuthAttemptsTotal.WithLabelValues("none", "rejected").Inc()
			transport.WriteError(w, r, h.logger, err)
			return
		}

		scheme := strings.ToLower(claim.Scheme())

		identity, err := h.authn.Authenticate(r.Context(), claim)
		if err != nil {
			outcome := "rejected"
			if !errors.Is(err, auth.ErrUnauthorized) {
				outcome = "error"
			}
			observability.AuthAttemptsTotal.WithLabelValues(scheme, outcome).Inc()
			debug.Log("transport", "authentication rejected",
				"scheme", scheme, "path", r.URL.Path, "outcome", outcome)
			transport.WriteError(w, r, h.logger, err)
			return
		}

		observability.AuthAttemptsTotal.WithLabelValues(scheme, "ok").Inc()
		next.ServeHTTP(w, r.WithContext(auth.SetIdentity(r.Context(), identity)))
	})
}
