// Package storage defines error values shared by storage implementations
// and their callers.
package storage

import "github.com/go-faster/errors"

// ErrUnavailable marks a transient storage failure (timeout, connection
// loss). Operations failing with it are safe to retry under the same
// idempotency key: settlement is atomic, so a retried order cannot be
// double-counted.
var ErrUnavailable = errors.New("storage unavailable")
