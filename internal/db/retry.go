package db

import (
	"errors"
	"time"

	"github.com/wisetreee/safe-haven/internal/store"
)

// Operation is a function that performs an action and returns an error if it fails.
// Operations passed to WithRetries must regenerate any random values (booking
// numbers, generated usernames) on each invocation, otherwise retrying is pointless.
type Operation func() error

// IsRetryable decides whether a failed operation should be attempted again.
type IsRetryable func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation, retrying on uniqueness collisions with default settings.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsDuplicateError)
}

// WithRetries executes an operation with a bounded retry loop. The initial
// attempt plus maxRetries retries are made, with a small incremental backoff
// between attempts. Non-retryable errors are returned immediately.
func WithRetries(op Operation, maxRetries int, isRetryable IsRetryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if !isRetryable(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsDuplicateError reports whether the error is a uniqueness-constraint
// violation from the storage layer.
func IsDuplicateError(err error) bool {
	return errors.Is(err, store.ErrDuplicate)
}
