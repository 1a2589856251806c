// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize produces the final cited research report and evaluates
// whether accumulated findings answer the question. The generation
// capability writes the prose; evidence formatting and the bibliography are
// deterministic core logic.
package synthesize

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

// synthesisPromptTmpl instructs the model to write a structured report with
// inline citations into the numbered source list.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are an expert research analyst. Synthesize the following sources into a comprehensive, well-structured research report.

**Research Question:** {{.Query}}

**Sources:**
{{.Sources}}

**Instructions:**
1. Write a comprehensive report answering the research question
2. Use inline citations like [1], [2] etc. referencing the source numbers above
3. Structure with clear sections using markdown headers (##)
4. Start with an "Executive Summary" (2-3 sentences)
5. Include a "Key Findings" section with bullet points
6. Add a "Detailed Analysis" section with in-depth coverage
7. If sources contradict each other, note this explicitly in a "Conflicting Information" section
8. End with "Limitations & Gaps" noting what wasn't covered
9. Be factual and cite specific claims — never make up information
10. Write in a professional but accessible tone

**Report:**`))

// completenessPromptTmpl asks the model to judge whether findings cover the
// question, answering with a strict JSON object.
var completenessPromptTmpl = template.Must(template.New("completeness").Parse(`You are a research quality evaluator. Given a research question and the findings so far, evaluate whether the research is comprehensive enough.

**Research Question:** {{.Query}}

**Current Findings:**
{{.Findings}}

**Evaluate:**
1. Is the answer comprehensive? (covers all major aspects)
2. Are there critical gaps? (important areas not addressed)
3. Are claims well-supported by sources?

**Respond with ONLY a JSON object:**
{
  "is_complete": true/false,
  "completeness_score": 0.0-1.0,
  "gaps": ["gap1", "gap2"],
  "reasoning": "brief explanation"
}`))

// maxEvalFindingsChars bounds the findings context passed to evaluation.
const maxEvalFindingsChars = 4000

// Completeness is the structured result of a completeness evaluation.
type Completeness struct {
	IsComplete bool     `json:"is_complete"`
	Score      float64  `json:"completeness_score"`
	Gaps       []string `json:"gaps"`
	Reasoning  string   `json:"reasoning"`
}

// Synthesizer produces reports and completeness judgments.
type Synthesizer struct {
	gen    llm.Generator
	cfg    types.AIConfig
	logger *zap.Logger
}

// New builds a Synthesizer over an injected generator.
func New(gen llm.Generator, cfg types.AIConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{gen: gen, cfg: cfg, logger: logger}
}

// Synthesize generates the full report from the collected evidence. The
// returned markdown always ends with the deterministic bibliography. A
// generation failure yields a well-formed report whose body states the
// failure; no error escapes this boundary.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, sources []types.SourceRecord, contradictions []types.Contradiction) string {
	s.logger.Info("synthesizing report", zap.Int("sources", len(sources)))

	evidence := FormatSources(sources)
	if len(contradictions) > 0 {
		var b strings.Builder
		b.WriteString(evidence)
		b.WriteString("\n\n**Detected Contradictions:**\n")
		for _, c := range contradictions {
			fmt.Fprintf(&b, "- %s vs %s: %s\n", c.SourceA, c.SourceB, c.Signal)
		}
		evidence = b.String()
	}

	prompt, err := renderTemplate(synthesisPromptTmpl, map[string]any{
		"Query":   query,
		"Sources": evidence,
	})
	if err != nil {
		s.logger.Error("rendering synthesis prompt", zap.Error(err))
		return failureReport(llm.KindOther) + Bibliography(sources)
	}

	opts := llm.Options{
		MaxOutputTokens: s.cfg.MaxOutputTokens,
		Temperature:     s.cfg.Temperature,
	}
	report, err := llm.GenerateWithRetry(ctx, s.gen, prompt, opts, s.cfg.MaxRetries)
	if err != nil {
		kind := llm.KindOf(err)
		s.logger.Error("report synthesis failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return failureReport(kind) + Bibliography(sources)
	}

	return strings.TrimSpace(report) + Bibliography(sources)
}

// EvaluateCompleteness asks the model whether the findings answer the
// question. Any failure returns the safe default: complete at 0.7 with no
// gaps, so the loop proceeds to synthesis rather than spin.
func (s *Synthesizer) EvaluateCompleteness(ctx context.Context, query, findings string) Completeness {
	if len(findings) > maxEvalFindingsChars {
		findings = findings[:maxEvalFindingsChars]
	}

	fallback := Completeness{
		IsComplete: true,
		Score:      0.7,
		Reasoning:  "Evaluation failed, proceeding with current findings.",
	}

	prompt, err := renderTemplate(completenessPromptTmpl, map[string]any{
		"Query":    query,
		"Findings": findings,
	})
	if err != nil {
		s.logger.Error("rendering completeness prompt", zap.Error(err))
		return fallback
	}

	text, err := llm.GenerateWithRetry(ctx, s.gen, prompt, llm.Options{Temperature: 0.1}, s.cfg.MaxRetries)
	if err != nil {
		s.logger.Warn("completeness evaluation failed",
			zap.String("kind", string(llm.KindOf(err))),
			zap.Error(err))
		return fallback
	}

	result, ok := parseCompleteness(text)
	if !ok {
		s.logger.Warn("unparseable completeness response")
		return fallback
	}
	return result
}

// parseCompleteness extracts the JSON object between the first '{' and the
// last '}' of the model output.
func parseCompleteness(text string) (Completeness, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return Completeness{}, false
	}

	var result Completeness
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return Completeness{}, false
	}
	return result, true
}

// FormatSources renders the numbered evidence bundle sent to synthesis.
func FormatSources(sources []types.SourceRecord) string {
	blocks := make([]string, 0, len(sources))
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = "Untitled"
		}
		content := src.Content
		if content == "" {
			content = src.Snippet
		}
		blocks = append(blocks, fmt.Sprintf(
			"**[%d] %s**\nSource: %s (%s)\nCredibility: %.0f%%\nContent: %s\n",
			i+1, title, src.URL, src.SourceType, src.CredibilityScore*100, content))
	}
	return strings.Join(blocks, "\n---\n")
}

// Bibliography renders the numbered source list appended to every report.
// Badge tiers: 🟢 at credibility ≥ 0.8, 🟡 at ≥ 0.6, 🔴 below.
func Bibliography(sources []types.SourceRecord) string {
	var b strings.Builder
	b.WriteString("\n\n---\n\n## Sources\n\n")
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = "Untitled"
		}
		url := src.URL
		if url == "" {
			url = "#"
		}
		fmt.Fprintf(&b, "%d. %s [%s](%s) — *%s* (credibility: %.0f%%)\n",
			i+1, credibilityBadge(src.CredibilityScore), title, url, src.SourceType, src.CredibilityScore*100)
	}
	return b.String()
}

func credibilityBadge(score float64) string {
	switch {
	case score >= 0.8:
		return "🟢"
	case score >= 0.6:
		return "🟡"
	default:
		return "🔴"
	}
}

// failureReport is the report body used when synthesis itself fails.
func failureReport(kind llm.FailureKind) string {
	return "# Research Report\n\nReport synthesis failed: " + llm.UserMessage(kind)
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
