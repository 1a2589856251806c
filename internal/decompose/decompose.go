// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decompose breaks complex research questions into targeted
// sub-queries and generates follow-up questions from research gaps. It is a
// boundary over the generation capability: raw model output is parsed
// defensively and every failure degrades to a usable fallback.
package decompose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

// decomposePromptTmpl instructs the model to split a research question into
// independently searchable sub-queries.
var decomposePromptTmpl = template.Must(template.New("decompose").Parse(`You are a research strategist. Given a complex research question, break it down into {{.MaxQueries}} specific, searchable sub-queries that together will provide a comprehensive answer.

**Rules:**
- Each sub-query should target a different aspect of the question
- Make queries specific enough to return focused results
- Include queries for both foundational context AND cutting-edge developments
- Include at least one query targeting academic/scientific sources
- Return ONLY a JSON array of strings, no explanation

**Research Question:** {{.Query}}

**JSON array of sub-queries:**`))

// followupPromptTmpl instructs the model to generate follow-up questions
// from the gaps in the findings so far.
var followupPromptTmpl = template.Must(template.New("followup").Parse(`You are a research analyst. Based on the findings so far, identify gaps in the research and generate {{.MaxQueries}} follow-up questions to deepen the investigation.

**Original Question:** {{.Query}}

**Findings So Far:**
{{.Findings}}

**Rules:**
- Focus on areas where information is incomplete, contradictory, or superficial
- Target specific claims that need verification
- Explore implications and connections not yet covered
- Return ONLY a JSON array of strings, no explanation

**JSON array of follow-up queries:**`))

// maxFindingsChars bounds the findings context passed to the model.
const maxFindingsChars = 3000

// Decomposer calls the generation capability to produce sub-queries.
type Decomposer struct {
	gen    llm.Generator
	cfg    types.AIConfig
	logger *zap.Logger

	maxSubQueries int
	maxFollowups  int
}

// New builds a Decomposer over an injected generator.
func New(gen llm.Generator, aiCfg types.AIConfig, researchCfg types.ResearchConfig, logger *zap.Logger) *Decomposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Decomposer{
		gen:           gen,
		cfg:           aiCfg,
		logger:        logger,
		maxSubQueries: researchCfg.MaxSubQueries,
		maxFollowups:  researchCfg.MaxFollowups,
	}
	if d.maxSubQueries <= 0 {
		d.maxSubQueries = 5
	}
	if d.maxFollowups <= 0 {
		d.maxFollowups = 3
	}
	return d
}

// Decompose breaks a question into sub-queries. When the capability fails
// after retries the original query is returned as the sole sub-query, so
// the research loop can always proceed.
func (d *Decomposer) Decompose(ctx context.Context, query string) []string {
	prompt, err := renderTemplate(decomposePromptTmpl, map[string]any{
		"Query":      query,
		"MaxQueries": d.maxSubQueries,
	})
	if err != nil {
		d.logger.Error("rendering decompose prompt", zap.Error(err))
		return []string{query}
	}

	text, err := llm.GenerateWithRetry(ctx, d.gen, prompt, llm.Options{Temperature: 0.3}, d.cfg.MaxRetries)
	if err != nil {
		d.logger.Warn("query decomposition failed, using raw query",
			zap.String("kind", string(llm.KindOf(err))),
			zap.Error(err))
		return []string{query}
	}

	subQueries := ParseList(text)
	if len(subQueries) == 0 {
		return []string{query}
	}
	if len(subQueries) > d.maxSubQueries {
		subQueries = subQueries[:d.maxSubQueries]
	}
	d.logger.Info("decomposed query", zap.Int("sub_queries", len(subQueries)))
	return subQueries
}

// Followups generates follow-up queries from the findings so far. When the
// capability fails after retries it returns nil, which tells the loop to
// stop iterating rather than repeat itself with no new direction.
func (d *Decomposer) Followups(ctx context.Context, query, findings string) []string {
	if len(findings) > maxFindingsChars {
		findings = findings[:maxFindingsChars]
	}

	prompt, err := renderTemplate(followupPromptTmpl, map[string]any{
		"Query":      query,
		"Findings":   findings,
		"MaxQueries": d.maxFollowups,
	})
	if err != nil {
		d.logger.Error("rendering followup prompt", zap.Error(err))
		return nil
	}

	text, err := llm.GenerateWithRetry(ctx, d.gen, prompt, llm.Options{Temperature: 0.3}, d.cfg.MaxRetries)
	if err != nil {
		d.logger.Warn("follow-up generation failed",
			zap.String("kind", string(llm.KindOf(err))),
			zap.Error(err))
		return nil
	}

	followups := ParseList(text)
	if len(followups) > d.maxFollowups {
		followups = followups[:d.maxFollowups]
	}
	return followups
}

// ParseList extracts a list of strings from raw model output. It tries a
// direct JSON parse, then the substring between the first '[' and last ']',
// and finally falls back to splitting on line breaks and keeping lines
// longer than 10 characters.
func ParseList(text string) []string {
	text = strings.TrimSpace(text)

	if items, ok := parseJSONArray(text); ok {
		return items
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start != -1 && end > start {
		if items, ok := parseJSONArray(text[start : end+1]); ok {
			return items
		}
	}

	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "-•*\" ")
		if len(line) > 10 {
			items = append(items, line)
		}
	}
	return items
}

// parseJSONArray parses text as a JSON array, stringifying non-string
// elements.
func parseJSONArray(text string) ([]string, bool) {
	var raw []any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false
	}
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			items = append(items, v)
		default:
			items = append(items, fmt.Sprintf("%v", v))
		}
	}
	return items, true
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
