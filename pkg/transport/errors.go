package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/auth"
	"github.com/plume-dev/plume/pkg/storage"
)

// HTTPStatusFromError maps an error to an HTTP status code and the body
// status string that goes with it. The mapping is total: any error not
// recognized as a client-side condition is a server fault.
func HTTPStatusFromError(err error) (int, string) {
	var parseErr *auth.ParseError
	var valErr *api.ValidationError

	switch {
	case errors.As(err, &parseErr), errors.As(err, &valErr):
		return http.StatusBadRequest, api.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, api.StatusNotAuthorized
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, api.StatusNotFound
	default:
		// EncryptionError, pool exhaustion, conflicting writes, query
		// faults: clients get the uniform 500 envelope, detail goes to
		// the log only.
		return http.StatusInternalServerError, api.StatusInternalError
	}
}

// WriteError maps err and writes the JSON error envelope. Server faults are
// logged with full detail before the response is written; the body never
// carries internal detail.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code, status := HTTPStatusFromError(err)

	if code == http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	WriteStatusBody(w, code, status)
}

// WriteStatusBody writes the uniform {"status": ...} envelope with the given
// HTTP status code.
func WriteStatusBody(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(api.StatusBody{Status: status})
}
