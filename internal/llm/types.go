// Package llm provides chat completion clients for the hosted and local
// language models that play the in-game characters.
//
// Every provider implements Completer. Failures are reported through a small
// set of sentinel errors so callers can pick a reply without knowing which
// provider is in use.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for completion requests
var (
	// ErrUnreachable is returned when the backend cannot be reached: connection
	// refused, DNS failure, or a timeout.
	ErrUnreachable = errors.New("llm backend unreachable")
	// ErrBackend is returned when the backend answered with an error status.
	ErrBackend = errors.New("llm backend error")
	// ErrEmptyReply is returned when the backend answered without any text.
	ErrEmptyReply = errors.New("llm returned an empty reply")
)

// Request is a single-turn completion: one system message and one user
// message. Nothing from earlier turns is included.
type Request struct {
	System string
	Prompt string
	Model  string
	// Seed makes sampling reproducible when the provider supports it.
	// 0 means no seed is sent.
	Seed      int64
	MaxTokens int
}

// Completer generates a reply for a Request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// BackendError carries the status reported by a provider.
// It matches ErrBackend with errors.Is.
type BackendError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Is reports whether target is ErrBackend.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
