package db

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// IsRetryable decides whether a failed operation should be attempted again.
type IsRetryable func(err error) bool

const DefaultMaxRetries = 3

// RetryDelay is the base delay between attempts; attempt n waits n*RetryDelay.
var RetryDelay = 500 * time.Millisecond

// Try executes an operation with DefaultMaxRetries, retrying transient connection errors.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsTransientError)
}

// WithRetries runs op once plus up to maxRetries more times while isRetryable(err) holds.
// Used only for connection establishment; request paths never retry.
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
		log.Printf("Transient error on attempt %d, retrying: %v", attempt+1, err)
		time.Sleep(time.Duration(attempt+1) * RetryDelay)
	}
	return err
}

// IsTransientError reports whether err looks like a temporary connectivity problem.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
