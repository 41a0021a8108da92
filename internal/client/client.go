// Package client holds the HTTP clients for the POS engine's collaborator
// services: the product catalog, the customer directory, and order
// persistence. Each client speaks JSON over the shared retrying HTTP client
// and maps non-2xx responses to structured application errors.
package client

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/Mtaasisi/POS-sub013/pkg/errors"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback replaces the raw circuit-open error with a structured
// error carrying a retry hint.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("downstream service is temporarily unavailable, please retry after 30 seconds")
}

// withTimeout applies a per-call timeout when one is configured. A zero
// timeout inherits the parent context deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}
