// Package provider maps failures of remote embedding and generation
// backends onto the domain's transient error kinds.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// maxBody bounds how much of an error response ends up in messages.
const maxBody = 300

// Wrap classifies err from a call named op on the provider name.
// Deadlines become domain.ErrTimeout, cancellation passes through
// unclassified, and anything else becomes domain.ErrProviderError.
func Wrap(name, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, domain.ErrProviderError),
		errors.Is(err, domain.ErrDimensionMismatch):
		return err
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s %s: %w", name, op, err)
	case isTimeout(err):
		return fmt.Errorf("%w: %s %s: %w", domain.ErrTimeout, name, op, err)
	default:
		return fmt.Errorf("%w: %s %s: %w", domain.ErrProviderError, name, op, err)
	}
}

// Status builds the error for a non-2xx HTTP response.
func Status(name, op string, code int, body string) error {
	body = strings.TrimSpace(body)
	if len(body) > maxBody {
		body = body[:maxBody] + "..."
	}
	kind := domain.ErrProviderError
	if code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout {
		kind = domain.ErrTimeout
	}
	if body == "" {
		return fmt.Errorf("%w: %s %s: status %d", kind, name, op, code)
	}
	return fmt.Errorf("%w: %s %s: status %d: %s", kind, name, op, code, body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
