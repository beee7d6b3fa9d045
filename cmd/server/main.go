// Command server runs the plume blogging API.
//
// Configuration is layered: built-in defaults, a YAML config file
// (-config flag, PLUME_CONFIG, ./config.yaml, /etc/plume/config.yaml),
// then PLUME_* environment overrides. See pkg/config for the full set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/plume-dev/plume/pkg/auth"
	"github.com/plume-dev/plume/pkg/config"
	"github.com/plume-dev/plume/pkg/debug"
	"github.com/plume-dev/plume/pkg/storage"
	"github.com/plume-dev/plume/pkg/storage/memory"
	"github.com/plume-dev/plume/pkg/storage/postgres"
	transporthttp "github.com/plume-dev/plume/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// PLUME_DEBUG / PLUME_LOG_LEVEL control categories and verbosity.
	debug.Init("", "")
	logger := slog.Default()

	// Open the store.
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()
	logger.Info("storage ready", "type", cfg.Storage.Type)

	// Wire the auth layer.
	verifier := auth.PasswordVerifier{Cost: cfg.Auth.BcryptCost}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.Auth.Secret),
		TTL:    cfg.Auth.TokenTTL,
	}, store, store)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	authn := auth.NewAuthenticator(store, tokens, verifier, loginIdentifier(cfg.Auth.LoginIdentifier))

	handler := transporthttp.NewHandler(store, authn, tokens, verifier, transporthttp.HandlerConfig{
		Logger:         logger,
		MetricsEnabled: cfg.Observability.Metrics.Enabled,
		MetricsPath:    cfg.Observability.Metrics.Path,
	})

	srv := transporthttp.NewServer(handler.Routes(),
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithLogger(logger),
	)

	return srv.ListenAndServe()
}

// openStore builds the configured storage backend.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		return memory.New(), nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return postgres.New(ctx, postgres.Config{
			DSN:             cfg.Storage.Postgres.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			MaxConnLifetime: cfg.Storage.Postgres.MaxConnLifetime,
			AcquireTimeout:  cfg.Storage.Postgres.AcquireTimeout,
			MigrateOnStart:  cfg.Storage.Postgres.MigrateOnStart,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// loginIdentifier maps the config string to the auth policy. Validation has
// already rejected unknown values.
func loginIdentifier(s string) auth.LoginIdentifier {
	switch strings.ToLower(s) {
	case "username":
		return auth.LoginByUsername
	case "both":
		return auth.LoginByBoth
	default:
		return auth.LoginByEmail
	}
}
