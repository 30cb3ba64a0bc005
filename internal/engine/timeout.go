package engine

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single provider operation when the run does not
// supply its own deployment timeout. VPN gateways routinely take tens of
// minutes to provision.
const DefaultTimeout = 45 * time.Minute

// WithTimeout wraps a context with the per-resource operation timeout.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
