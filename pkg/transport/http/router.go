package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plume-dev/plume/pkg/api"
	"github.com/plume-dev/plume/pkg/auth"
	"github.com/plume-dev/plume/pkg/observability"
	"github.com/plume-dev/plume/pkg/storage"
	"github.com/plume-dev/plume/pkg/transport"
)

// Handler routes API requests to the storage and auth layers.
type Handler struct {
	store    storage.Store
	authn    *auth.Authenticator
	tokens   *auth.TokenService
	verifier auth.PasswordVerifier
	logger   *slog.Logger
	config   HandlerConfig
}

// HandlerConfig holds routing options.
type HandlerConfig struct {
	Logger         *slog.Logger
	MetricsEnabled bool
	MetricsPath    string
}

// NewHandler creates the API handler.
func NewHandler(store storage.Store, authn *auth.Authenticator, tokens *auth.TokenService, verifier auth.PasswordVerifier, cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Handler{
		store:    store,
		authn:    authn,
		tokens:   tokens,
		verifier: verifier,
		logger:   cfg.Logger,
		config:   cfg,
	}
}

// Routes returns the fully wired http.Handler: all API routes under /api/v1
// plus the operational endpoints, wrapped in the middleware chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/login", h.handleLogin)

	mux.HandleFunc("GET /api/v1/users", h.handleListUsers)
	mux.HandleFunc("POST /api/v1/users", h.handleCreateUser)
	mux.HandleFunc("GET /api/v1/users/{id}", h.handleGetUser)
	mux.Handle("PUT /api/v1/users/{id}", h.requireAuth(h.handleUpdateUser))
	mux.Handle("DELETE /api/v1/users/{id}", h.requireAuth(h.handleDeleteUser))
	mux.HandleFunc("GET /api/v1/users/{id}/comments", h.handleListUserComments)

	mux.HandleFunc("GET /api/v1/posts", h.handleListPosts)
	mux.Handle("POST /api/v1/posts", h.requireAuth(h.handleCreatePost))
	mux.HandleFunc("GET /api/v1/posts/{id}", h.handleGetPost)
	mux.Handle("PUT /api/v1/posts/{id}", h.requireAuth(h.handleUpdatePost))
	mux.Handle("DELETE /api/v1/posts/{id}", h.requireAuth(h.handleDeletePost))
	mux.HandleFunc("GET /api/v1/posts/{id}/comments", h.handleListPostComments)
	mux.HandleFunc("GET /api/v1/posts/{id}/comments/{commentID}", h.handleGetPostComment)

	mux.HandleFunc("GET /api/v1/comments", h.handleListComments)
	mux.Handle("POST /api/v1/comments", h.requireAuth(h.handleCreateComment))
	mux.HandleFunc("GET /api/v1/comments/{id}", h.handleGetComment)
	mux.Handle("PUT /api/v1/comments/{id}", h.requireAuth(h.handleUpdateComment))
	mux.Handle("DELETE /api/v1/comments/{id}", h.requireAuth(h.handleDeleteComment))

	mux.HandleFunc("GET /healthz", h.handleHealth)
	if h.config.MetricsEnabled {
		mux.Handle("GET "+h.config.MetricsPath, promhttp.Handler())
	}

	return transport.Chain(
		transport.Recovery(h.logger),
		transport.RequestID(),
		transport.Logging(h.logger),
		observability.MetricsMiddleware,
	)(mux)
}

// handleHealth reports liveness, including reachability of the store.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		transport.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// writeJSON serializes v with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v. Malformed JSON is a
// validation error (400), never a server fault.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &api.ValidationError{Param: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// pathID parses the named path segment as a positive integer ID.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &api.ValidationError{Param: name, Message: "must be a positive integer"}
	}
	return id, nil
}
