// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/pkg/types"
)

// --- mock connector ---

type mockConnector struct {
	name    string
	results map[string][]types.SourceRecord // query → results
	err     error
	delay   time.Duration
}

func (m *mockConnector) Name() string { return m.name }

func (m *mockConnector) Search(ctx context.Context, query string) ([]types.SourceRecord, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.results[query], nil
}

func rec(url string) types.SourceRecord {
	return types.SourceRecord{Title: url, URL: url, SourceType: types.SourceWeb}
}

func newTestRetriever(connectors ...Connector) *Retriever {
	return NewRetriever(connectors, types.SearchConfig{MaxConcurrent: 4, RequestsPerMinute: 0}, nil)
}

// --- RetrieveAll ---

func TestRetrieveAllDeduplicatesByURL(t *testing.T) {
	// Two connectors whose combined output repeats a.com.
	c1 := &mockConnector{name: "one", results: map[string][]types.SourceRecord{
		"effects of caffeine on sleep": {rec("https://a.com"), rec("https://b.com")},
	}}
	c2 := &mockConnector{name: "two", results: map[string][]types.SourceRecord{
		"effects of caffeine on sleep": {rec("https://a.com")},
	}}

	out := newTestRetriever(c1, c2).RetrieveAll(context.Background(),
		[]string{"effects of caffeine on sleep"})

	require.Len(t, out, 2)
	assert.Equal(t, "https://a.com", out[0].URL)
	assert.Equal(t, "https://b.com", out[1].URL)
}

func TestRetrieveAllNoDuplicateURLsAcrossSubQueries(t *testing.T) {
	c := &mockConnector{name: "one", results: map[string][]types.SourceRecord{
		"q1": {rec("https://a.com"), rec("https://b.com")},
		"q2": {rec("https://b.com"), rec("https://c.com")},
	}}

	out := newTestRetriever(c).RetrieveAll(context.Background(), []string{"q1", "q2"})

	seen := map[string]bool{}
	for _, r := range out {
		assert.False(t, seen[r.URL], "duplicate URL %s", r.URL)
		seen[r.URL] = true
	}
	assert.Len(t, out, 3)
}

func TestRetrieveAllFailingConnectorDoesNotDiscardOthers(t *testing.T) {
	good := &mockConnector{name: "good", results: map[string][]types.SourceRecord{
		"q": {rec("https://a.com")},
	}}
	bad := &mockConnector{name: "bad", err: errors.New("connector down")}
	slow := &mockConnector{name: "slow", delay: 10 * time.Millisecond, results: map[string][]types.SourceRecord{
		"q": {rec("https://b.com")},
	}}

	out := newTestRetriever(good, bad, slow).RetrieveAll(context.Background(), []string{"q"})

	require.Len(t, out, 2, "failure of one connector must not drop sibling results")
}

func TestRetrieveAllDeterministicPriorityOrder(t *testing.T) {
	// The slow connector is registered first, so its records must still win
	// the dedup tie even though they arrive last.
	slow := &mockConnector{name: "slow", delay: 20 * time.Millisecond, results: map[string][]types.SourceRecord{
		"q": {{Title: "from slow", URL: "https://dup.com"}},
	}}
	fast := &mockConnector{name: "fast", results: map[string][]types.SourceRecord{
		"q": {{Title: "from fast", URL: "https://dup.com"}},
	}}

	out := newTestRetriever(slow, fast).RetrieveAll(context.Background(), []string{"q"})

	require.Len(t, out, 1)
	assert.Equal(t, "from slow", out[0].Title,
		"first-wins dedup must follow registration order, not arrival order")
}

func TestRetrieveAllSkipsEmptyURLs(t *testing.T) {
	c := &mockConnector{name: "one", results: map[string][]types.SourceRecord{
		"q": {{Title: "no url"}, rec("https://a.com")},
	}}

	out := newTestRetriever(c).RetrieveAll(context.Background(), []string{"q"})
	require.Len(t, out, 1)
}

func TestRetrieveAllCancelledContext(t *testing.T) {
	c := &mockConnector{name: "one", delay: time.Second, results: map[string][]types.SourceRecord{
		"q": {rec("https://a.com")},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTestRetriever(c).RetrieveAll(ctx, []string{"q"})
	assert.Empty(t, out)
}

// --- clip ---

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 10))
	assert.Equal(t, "abc", clip("abcdef", 3))
	assert.Equal(t, "abcdef", clip("abcdef", 0), "zero max means unbounded")

	// Never splits a multi-byte rune.
	clipped := clip("héllo", 2)
	assert.Equal(t, "h", clipped)
}
