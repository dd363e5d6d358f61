package startup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hurricanerix/infiltrate/internal/logging"
	"github.com/hurricanerix/infiltrate/internal/web"
)

// tracingFlushTimeout bounds the final span export on shutdown
const tracingFlushTimeout = 5 * time.Second

// Cleanup releases the resources held by components: the session store's
// cleanup goroutine, the backend client and the tracer provider.
//
// Errors during cleanup are logged but do not stop the remaining steps.
// Fields left nil by a partial initialization are skipped.
func Cleanup(components *Components) {
	if components == nil {
		return
	}
	logger := components.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	logger.Debug("Starting cleanup")

	if components.Sessions != nil {
		components.Sessions.Shutdown()
		logger.Debug("Session store stopped")
	}

	if closer, ok := components.Backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close llm backend: %v", err)
		}
	}

	if components.ShutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), tracingFlushTimeout)
		defer cancel()
		if err := components.ShutdownTracing(ctx); err != nil {
			logger.Error("Failed to flush traces: %v", err)
		}
	}

	logger.Debug("Cleanup complete")
}

// Run starts the web server and blocks until a shutdown signal is received.
// It handles SIGTERM and SIGINT signals for graceful shutdown.
//
// Returns nil on clean shutdown, error otherwise.
func Run(ctx context.Context, server *web.Server, logger *logging.Logger) error {
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The web.Server itself logs "Shutting down..." and "Web server stopped"
	if err := server.ListenAndServe(shutdownCtx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
