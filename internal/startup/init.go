package startup

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/hurricanerix/infiltrate/internal/assistant"
	"github.com/hurricanerix/infiltrate/internal/config"
	"github.com/hurricanerix/infiltrate/internal/levels"
	"github.com/hurricanerix/infiltrate/internal/llm"
	"github.com/hurricanerix/infiltrate/internal/logging"
	"github.com/hurricanerix/infiltrate/internal/progress"
	"github.com/hurricanerix/infiltrate/internal/session"
	"github.com/hurricanerix/infiltrate/internal/web"
)

// secretKeyBytes is the size of a generated session signing key.
const secretKeyBytes = 32

// Components holds all initialized application components
type Components struct {
	Registry   *levels.Registry
	Paths      *levels.Paths
	Controller *progress.Controller
	Backend    llm.Backend
	Gateway    *assistant.Gateway
	Sessions   *session.Store[progress.Session]
	WebServer  *web.Server
	Logger     *logging.Logger

	// ShutdownTracing flushes pending spans. Never nil.
	ShutdownTracing func(context.Context) error
}

// CreateLogger creates a logger with the configured log level
func CreateLogger(cfg *config.Config) *logging.Logger {
	return logging.NewFromString(cfg.LogLevel, nil)
}

// CreateLevels builds the level table, its per-process access paths and the
// progression controller over them. random supplies path entropy; nil uses
// crypto/rand.
func CreateLevels(random io.Reader) (*levels.Registry, *levels.Paths, *progress.Controller, error) {
	registry := levels.Office()
	paths, err := levels.GeneratePaths(registry, random)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate level paths: %w", err)
	}
	return registry, paths, progress.NewController(registry, paths), nil
}

// CreateBackend creates the LLM client selected by the configuration.
// It does NOT check connectivity - use ValidateBackend() separately.
func CreateBackend(ctx context.Context, cfg *config.Config) (llm.Backend, error) {
	backend, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm backend: %w", err)
	}
	return backend, nil
}

// CreateGateway creates the assistant gateway over backend.
func CreateGateway(cfg *config.Config, registry *levels.Registry, backend llm.Completer, logger *logging.Logger) *assistant.Gateway {
	return assistant.New(registry, backend, assistant.Options{
		Model:     cfg.LLMModel,
		Seed:      cfg.LLMSeed,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}, logger)
}

// CreateSessionStore creates the player session store and starts its
// cleanup goroutine.
func CreateSessionStore(logger *logging.Logger) *session.Store[progress.Session] {
	return session.NewStore(progress.NewSession, logger)
}

// CreateSigner creates the session cookie signer. Without a configured key a
// random one is generated, so sessions do not survive a restart.
func CreateSigner(cfg *config.Config, random io.Reader, logger *logging.Logger) (*web.SessionSigner, error) {
	if cfg.SecretKey != "" {
		return web.NewSessionSigner([]byte(cfg.SecretKey)), nil
	}

	if random == nil {
		random = rand.Reader
	}
	key := make([]byte, secretKeyBytes)
	if _, err := io.ReadFull(random, key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	logger.Warn("No %sSECRET_KEY set, using a random session key; sessions will not survive a restart", config.EnvPrefix)
	return web.NewSessionSigner(key), nil
}

// CreateWebServer creates the HTTP server with all dependencies wired
func CreateWebServer(cfg *config.Config, deps web.Deps) (*web.Server, error) {
	addr := fmt.Sprintf("localhost:%d", cfg.Port)

	server, err := web.NewServer(addr, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create web server: %w", err)
	}

	return server, nil
}

// InitializeAll creates and initializes all application components.
// It does NOT validate dependencies - validation should be done separately.
// On error, anything already started is released.
func InitializeAll(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Components, error) {
	logger.Debug("Initializing components")

	shutdownTracing, err := SetupTracing(ctx, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	c := &Components{Logger: logger, ShutdownTracing: shutdownTracing}
	if cfg.OTelEndpoint != "" {
		logger.Debug("Exporting traces to %s", cfg.OTelEndpoint)
	}

	c.Registry, c.Paths, c.Controller, err = CreateLevels(nil)
	if err != nil {
		Cleanup(c)
		return nil, err
	}
	logger.Debug("Loaded %d levels", c.Registry.Count())

	c.Backend, err = CreateBackend(ctx, cfg)
	if err != nil {
		Cleanup(c)
		return nil, err
	}
	logger.Debug("Created %s backend: model=%s", cfg.LLMProvider, cfg.LLMModel)

	c.Gateway = CreateGateway(cfg, c.Registry, c.Backend, logger)
	logger.Debug("Created assistant gateway: %s", c.Gateway)

	c.Sessions = CreateSessionStore(logger)
	logger.Debug("Created session store with cleanup enabled")

	signer, err := CreateSigner(cfg, nil, logger)
	if err != nil {
		Cleanup(c)
		return nil, err
	}

	c.WebServer, err = CreateWebServer(cfg, web.Deps{
		Controller: c.Controller,
		Paths:      c.Paths,
		Assistant:  c.Gateway,
		Sessions:   c.Sessions,
		Signer:     signer,
		Logger:     logger,
	})
	if err != nil {
		Cleanup(c)
		return nil, err
	}
	logger.Debug("Created web server on port %d", cfg.Port)

	return c, nil
}
