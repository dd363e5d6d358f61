package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// classifyTransportError maps errors that happen before a provider answers.
// It returns nil when err does not look like a transport failure, so the
// caller can try provider-specific classification next.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}

	// Caller gave up; keep it distinguishable from a slow backend.
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timeout: %v", ErrUnreachable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: timeout: %v", ErrUnreachable, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: dns: %v", ErrUnreachable, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return nil
}
