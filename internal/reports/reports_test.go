// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

var fixedTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			"simple query",
			"effects of caffeine on sleep",
			"20260314_092653_effects_of_caffeine_on_sleep.md",
		},
		{
			"punctuation stripped",
			"what is CRISPR-Cas9, really?",
			"20260314_092653_what_is_CRISPRCas9_really.md",
		},
		{
			"long query clipped",
			"a very long research question that goes on and on well past the fifty character mark",
			"20260314_092653_a_very_long_research_question_that_goes_on_and_on.md",
		},
		{
			"only punctuation",
			"?!?",
			"20260314_092653_.md",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.query, fixedTime))
		})
	}
}

func TestSaveWritesReportAndSidecar(t *testing.T) {
	dir := t.TempDir()
	report := &types.ResearchReport{
		Query:          "quantum computing",
		ReportMarkdown: "# Report\n\nBody.",
		Sources:        []types.SourceRecord{{URL: "https://a.com"}, {URL: "https://b.com"}},
		Iterations:     2,
		Contradictions: []types.Contradiction{{SourceA: "A", SourceB: "B"}},
	}

	name, err := Save(dir, report, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, "20260314_092653_quantum_computing.md", name)

	body, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, report.ReportMarkdown, string(body))

	metaRaw, err := os.ReadFile(filepath.Join(dir, "20260314_092653_quantum_computing.meta.yaml"))
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, yaml.Unmarshal(metaRaw, &meta))
	assert.Equal(t, "quantum computing", meta.Query)
	assert.Equal(t, 2, meta.Sources)
	assert.Equal(t, 2, meta.Iterations)
	assert.Equal(t, 1, meta.Contradictions)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	_, err := Save(dir, &types.ResearchReport{Query: "q", ReportMarkdown: "x"}, fixedTime)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
