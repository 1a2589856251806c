// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reports persists finished research reports to disk. Each report is
// a markdown file plus a YAML metadata sidecar carrying the query, source
// count, and iteration count, so a directory of reports is browsable without
// parsing markdown.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// maxQueryChars bounds the query portion of a report filename.
const maxQueryChars = 50

// Metadata is the sidecar written next to each report.
type Metadata struct {
	Query          string    `yaml:"query"`
	CreatedAt      time.Time `yaml:"created_at"`
	Sources        int       `yaml:"sources"`
	Iterations     int       `yaml:"iterations"`
	Contradictions int       `yaml:"contradictions"`
}

// Filename derives a report filename from the query and timestamp. The query
// is reduced to letters, digits, and spaces, clipped to 50 characters, and
// spaces become underscores. Two reports saved in the same second for the
// same query collide; callers that need uniqueness use the returned path's
// existence as the signal.
func Filename(query string, now time.Time) string {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	sanitized := strings.TrimSpace(b.String())
	if runes := []rune(sanitized); len(runes) > maxQueryChars {
		sanitized = strings.TrimSpace(string(runes[:maxQueryChars]))
	}
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	return fmt.Sprintf("%s_%s.md", now.Format("20060102_150405"), sanitized)
}

// Save writes the report markdown and its metadata sidecar into dir,
// creating the directory if needed. It returns the report filename
// (not the full path).
func Save(dir string, report *types.ResearchReport, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	name := Filename(report.Query, now)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(report.ReportMarkdown), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	meta := Metadata{
		Query:          report.Query,
		CreatedAt:      now,
		Sources:        len(report.Sources),
		Iterations:     report.Iterations,
		Contradictions: len(report.Contradictions),
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encoding report metadata: %w", err)
	}
	metaPath := strings.TrimSuffix(path, ".md") + ".meta.yaml"
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report metadata: %w", err)
	}
	return name, nil
}
