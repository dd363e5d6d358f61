// Package startup provides initialization, validation and shutdown for the
// infiltrate server.
//
// The LLM backend is checked before the server starts accepting requests, but
// an unavailable backend is not fatal: guards answer with their fallback
// replies until it comes back.
package startup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hurricanerix/infiltrate/internal/llm"
)

// ErrBackendUnavailable is returned when the LLM backend fails its check
var ErrBackendUnavailable = errors.New("llm backend unavailable")

// backendTimeout is the timeout for the backend validation request
const backendTimeout = 5 * time.Second

// ValidateBackend checks that backend is reachable and serves model.
// Returns nil on success, or ErrBackendUnavailable wrapping the cause.
func ValidateBackend(ctx context.Context, backend llm.Backend, model string) error {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	if err := backend.Check(ctx, model); err != nil {
		if errors.Is(err, llm.ErrModelNotFound) {
			return fmt.Errorf("%w: model %q not found: %w", ErrBackendUnavailable, model, err)
		}
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return nil
}
