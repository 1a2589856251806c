// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

func init() {
	llm.RetryBaseDelay = 1 * time.Millisecond
}

type fixedGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fixedGenerator) Generate(_ context.Context, prompt string, _ llm.Options) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func testSources() []types.SourceRecord {
	return []types.SourceRecord{
		{Title: "High Cred", URL: "https://nature.com/a", SourceType: types.SourceAcademic, CredibilityScore: 0.91, Content: "evidence"},
		{Title: "Mid Cred", URL: "https://wired.com/b", SourceType: types.SourceWeb, CredibilityScore: 0.65, Snippet: "snippet"},
		{Title: "Low Cred", URL: "https://example.com/c", SourceType: types.SourceWeb, CredibilityScore: 0.5},
	}
}

// --- Synthesize ---

func TestSynthesizeAppendsBibliography(t *testing.T) {
	gen := &fixedGenerator{text: "## Executive Summary\n\nCaffeine delays sleep [1]."}
	s := New(gen, types.AIConfig{}, nil)

	report := s.Synthesize(context.Background(), "caffeine and sleep", testSources(), nil)

	assert.Contains(t, report, "Executive Summary")
	assert.Contains(t, report, "## Sources")
	assert.Contains(t, report, "1. 🟢 [High Cred](https://nature.com/a)")
	assert.Contains(t, report, "2. 🟡 [Mid Cred](https://wired.com/b)")
	assert.Contains(t, report, "3. 🔴 [Low Cred](https://example.com/c)")
}

func TestSynthesizeIncludesContradictionsInPrompt(t *testing.T) {
	gen := &fixedGenerator{text: "report"}
	s := New(gen, types.AIConfig{}, nil)

	contradictions := []types.Contradiction{
		{SourceA: "A", SourceB: "B", Signal: "'increase' vs 'decrease'"},
	}
	s.Synthesize(context.Background(), "q", testSources(), contradictions)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "**Detected Contradictions:**")
	assert.Contains(t, gen.prompts[0], "'increase' vs 'decrease'")
}

func TestSynthesizeFailureYieldsWellFormedReport(t *testing.T) {
	gen := &fixedGenerator{err: &llm.Error{Kind: llm.KindRateLimit, Err: errors.New("429")}}
	s := New(gen, types.AIConfig{MaxRetries: 1}, nil)

	report := s.Synthesize(context.Background(), "q", testSources(), nil)

	assert.True(t, strings.HasPrefix(report, "# Research Report"))
	assert.Contains(t, report, "rate limiting")
	assert.NotContains(t, report, "429", "raw error text must not surface")
	assert.Contains(t, report, "## Sources", "bibliography still appended on failure")
}

// --- FormatSources ---

func TestFormatSourcesNumbersAndFallsBackToSnippet(t *testing.T) {
	out := FormatSources(testSources())

	assert.Contains(t, out, "**[1] High Cred**")
	assert.Contains(t, out, "**[2] Mid Cred**")
	assert.Contains(t, out, "Content: snippet", "snippet substitutes for empty content")
	assert.Contains(t, out, "Credibility: 91%")
}

// --- EvaluateCompleteness ---

func TestEvaluateCompletenessParsesJSON(t *testing.T) {
	gen := &fixedGenerator{text: `Sure, here is my evaluation:
{"is_complete": false, "completeness_score": 0.55, "gaps": ["long-term effects"], "reasoning": "thin coverage"}`}
	s := New(gen, types.AIConfig{}, nil)

	got := s.EvaluateCompleteness(context.Background(), "q", "findings")
	assert.False(t, got.IsComplete)
	assert.InDelta(t, 0.55, got.Score, 1e-9)
	assert.Equal(t, []string{"long-term effects"}, got.Gaps)
}

func TestEvaluateCompletenessFailureDefaults(t *testing.T) {
	tests := []struct {
		name string
		gen  *fixedGenerator
	}{
		{"generation error", &fixedGenerator{err: &llm.Error{Kind: llm.KindServer, Err: errors.New("503")}}},
		{"unparseable output", &fixedGenerator{text: "I cannot answer in JSON, sorry."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.gen, types.AIConfig{MaxRetries: 1}, nil)
			got := s.EvaluateCompleteness(context.Background(), "q", "findings")

			assert.True(t, got.IsComplete, "safe default proceeds to synthesis")
			assert.InDelta(t, 0.7, got.Score, 1e-9)
			assert.Empty(t, got.Gaps)
		})
	}
}

func TestEvaluateCompletenessBoundsFindings(t *testing.T) {
	gen := &fixedGenerator{text: `{"is_complete": true, "completeness_score": 0.9, "gaps": []}`}
	s := New(gen, types.AIConfig{}, nil)

	s.EvaluateCompleteness(context.Background(), "q", strings.Repeat("x", 3*maxEvalFindingsChars))
	require.Len(t, gen.prompts, 1)
	assert.Less(t, len(gen.prompts[0]), maxEvalFindingsChars+1500)
}

// --- Bibliography ---

func TestBibliographyBadgeTiers(t *testing.T) {
	tests := []struct {
		score float64
		badge string
	}{
		{0.95, "🟢"},
		{0.8, "🟢"},
		{0.79, "🟡"},
		{0.6, "🟡"},
		{0.59, "🔴"},
	}
	for _, tt := range tests {
		out := Bibliography([]types.SourceRecord{{Title: "T", URL: "https://x.com", CredibilityScore: tt.score}})
		assert.Contains(t, out, tt.badge, "score %v", tt.score)
	}
}

func TestBibliographyUntitledFallback(t *testing.T) {
	out := Bibliography([]types.SourceRecord{{URL: ""}})
	assert.Contains(t, out, "[Untitled](#)")
}
