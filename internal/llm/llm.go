// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the text-generation capability consumed by the
// decomposition and synthesis boundaries. The Generator interface is an
// injected dependency so tests can supply a mock; failures carry a typed
// category so callers never match on error strings.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options is the per-call generation configuration.
type Options struct {
	// MaxOutputTokens bounds the response length. Zero uses the API default.
	MaxOutputTokens int

	// Temperature is the sampling temperature in [0, 2].
	Temperature float64
}

// Generator produces free text from a prompt. Implementations must honor
// ctx cancellation and return an *Error for classified failures.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// FailureKind categorizes a generation failure. Retry decisions and
// user-facing messages are made on the kind, never on the error text.
type FailureKind string

const (
	KindRateLimit FailureKind = "rate_limit"
	KindServer    FailureKind = "server"
	KindAuth      FailureKind = "auth"
	KindTimeout   FailureKind = "timeout"
	KindOther     FailureKind = "other"
)

// Error is a classified generation failure.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, or KindOther when err carries
// no classification.
func KindOf(err error) FailureKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindOther
}

// Retryable reports whether a failure kind is worth retrying: rate limits
// and transient server errors are, everything else fails immediately.
func Retryable(kind FailureKind) bool {
	return kind == KindRateLimit || kind == KindServer
}

// UserMessage returns a sanitized, category-specific message safe to surface
// to clients. Raw internal error text never reaches the transport.
func UserMessage(kind FailureKind) string {
	switch kind {
	case KindRateLimit:
		return "The generation service is rate limiting requests. Please try again shortly."
	case KindServer:
		return "The generation service is temporarily unavailable."
	case KindAuth:
		return "The generation service rejected the configured credentials."
	case KindTimeout:
		return "The generation service timed out."
	default:
		return "The generation service returned an unexpected error."
	}
}

// RetryBaseDelay is the starting backoff for retryable generation failures.
// It doubles on each attempt: 1s, 2s, 4s. Tests override this to avoid
// real sleeps.
var RetryBaseDelay = 1 * time.Second

// GenerateWithRetry calls gen up to maxAttempts times, backing off
// exponentially between attempts. Only rate-limit and transient server
// failures are retried; other kinds return immediately. When maxAttempts
// is not positive it defaults to 3.
func GenerateWithRetry(ctx context.Context, gen Generator, prompt string, opts Options, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	delay := RetryBaseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := gen.Generate(ctx, prompt, opts)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !Retryable(KindOf(err)) || attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", lastErr
}
