package turso

import (
	"context"
	"strings"
	"time"
)

// maxStreamRetries is how often a read is retried after a stale stream.
const maxStreamRetries = 2

// IsStreamError reports whether err is a remote "stream not found" error,
// which happens when the server closed an idle Hrana stream.
func IsStreamError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "stream not found")
}

// withRetry runs fn again after stream errors, up to maxRetries times.
func withRetry[T any](ctx context.Context, maxRetries int, fn func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if !IsStreamError(err) || attempt == maxRetries {
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return result, err
}
