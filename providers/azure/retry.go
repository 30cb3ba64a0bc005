package azure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

const (
	retryMax       = 3
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 30 * time.Second
)

// retryTransient executes fn, retrying throttling and server-side failures
// with exponential backoff and jitter. Anything else propagates on the
// first attempt.
func retryTransient(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= retryMax; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt < retryMax {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(backoffDelay(attempt)):
			}
		}
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", retryMax, lastErr)
}

func backoffDelay(attempt int) time.Duration {
	backoff := float64(retryBaseDelay) * math.Pow(2, float64(attempt))
	if backoff > float64(retryMaxDelay) {
		backoff = float64(retryMaxDelay)
	}
	return time.Duration(rand.Float64() * backoff)
}

// isTransient reports whether an error is worth retrying: ARM throttling,
// server errors, or connection-level failures.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"throttl",
		"too many requests",
		"connection reset",
		"connection refused",
		"i/o timeout",
		"tls handshake",
		"temporary failure",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
