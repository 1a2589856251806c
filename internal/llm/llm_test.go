// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

// fakeGenerator fails with a fixed error until succeedOn calls have been
// made, then returns text.
type fakeGenerator struct {
	calls     int
	succeedOn int
	err       error
	text      string
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ Options) (string, error) {
	f.calls++
	if f.succeedOn > 0 && f.calls >= f.succeedOn {
		return f.text, nil
	}
	return "", f.err
}

func TestGenerateWithRetryImmediateSuccess(t *testing.T) {
	gen := &fakeGenerator{succeedOn: 1, text: "ok"}

	text, err := GenerateWithRetry(context.Background(), gen, "p", Options{}, 3)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateWithRetryRateLimitThenSuccess(t *testing.T) {
	gen := &fakeGenerator{
		succeedOn: 3,
		err:       &Error{Kind: KindRateLimit, Err: errors.New("429")},
		text:      "recovered",
	}

	text, err := GenerateWithRetry(context.Background(), gen, "p", Options{}, 3)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerateWithRetryExhausted(t *testing.T) {
	gen := &fakeGenerator{err: &Error{Kind: KindServer, Err: errors.New("503")}}

	_, err := GenerateWithRetry(context.Background(), gen, "p", Options{}, 3)
	require.Error(t, err)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, 3, gen.calls)
}

func TestGenerateWithRetryNonRetryableFailsFast(t *testing.T) {
	tests := []struct {
		name string
		kind FailureKind
	}{
		{"auth", KindAuth},
		{"timeout", KindTimeout},
		{"other", KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{err: &Error{Kind: tt.kind, Err: errors.New("boom")}}

			_, err := GenerateWithRetry(context.Background(), gen, "p", Options{}, 3)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, 1, gen.calls, "non-retryable failures must not be retried")
		})
	}
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
}

func TestUserMessageNeverEchoesInternalText(t *testing.T) {
	for _, kind := range []FailureKind{KindRateLimit, KindServer, KindAuth, KindTimeout, KindOther} {
		msg := UserMessage(kind)
		assert.NotEmpty(t, msg)
		assert.NotContains(t, msg, "boom")
	}
}
