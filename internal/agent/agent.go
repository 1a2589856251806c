// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent drives the iterative research loop: decompose the query,
// fan out retrieval, score and filter the evidence, accumulate it, decide
// whether to keep digging, and finally synthesize a cited report.
//
// One Agent is safe for concurrent use; all per-request state lives in a
// researchState owned by a single Research call. The loop across iterations
// is strictly sequential because each iteration's follow-up queries depend
// on the previous iteration's findings; concurrency happens inside the
// retriever fan-out only.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/credibility"
	"github.com/pdiddy/deep-research/internal/process"
	"github.com/pdiddy/deep-research/internal/synthesize"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Decomposer produces sub-queries and follow-up queries. Both methods
// degrade rather than fail: see internal/decompose.
type Decomposer interface {
	Decompose(ctx context.Context, query string) []string
	Followups(ctx context.Context, query, findings string) []string
}

// Retriever fans sub-queries out across source connectors.
type Retriever interface {
	RetrieveAll(ctx context.Context, subQueries []string) []types.SourceRecord
}

// Synthesizer writes the final report and judges completeness.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, sources []types.SourceRecord, contradictions []types.Contradiction) string
	EvaluateCompleteness(ctx context.Context, query, findings string) synthesize.Completeness
}

// Agent is the research loop controller.
type Agent struct {
	decomposer  Decomposer
	retriever   Retriever
	scorer      *credibility.Scorer
	synthesizer Synthesizer
	cfg         types.ResearchConfig
	maxContent  int
	logger      *zap.Logger
}

// New builds an Agent. MaxIterations and CompletenessTarget fall back to
// their defaults (3 and 0.8) when unset.
func New(decomposer Decomposer, retriever Retriever, scorer *credibility.Scorer, synthesizer Synthesizer, cfg types.ResearchConfig, searchCfg types.SearchConfig, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 3
	}
	if cfg.CompletenessTarget <= 0 {
		cfg.CompletenessTarget = 0.8
	}
	maxContent := searchCfg.MaxContentLength
	if maxContent <= 0 {
		maxContent = 4000
	}
	return &Agent{
		decomposer:  decomposer,
		retriever:   retriever,
		scorer:      scorer,
		synthesizer: synthesizer,
		cfg:         cfg,
		maxContent:  maxContent,
		logger:      logger,
	}
}

// researchState is the per-request loop state. It is owned exclusively by
// one Research invocation and never shared.
type researchState struct {
	query          string
	currentQuery   string
	iteration      int
	sources        []types.SourceRecord
	seenURLs       map[string]struct{}
	contradictions []types.Contradiction
}

// addSource appends a record unless its URL was already accumulated.
// Accumulated sources never shrink and never repeat a URL.
func (st *researchState) addSource(rec types.SourceRecord) bool {
	if _, dup := st.seenURLs[rec.URL]; dup {
		return false
	}
	st.seenURLs[rec.URL] = struct{}{}
	st.sources = append(st.sources, rec)
	return true
}

// Research executes the full research loop for one query and always
// returns a well-formed report; no inner failure escapes this boundary.
// The only error returned is ctx.Err() when the caller cancelled, in which
// case no further iterations or fan-outs are scheduled (in-flight connector
// requests are abandoned through context propagation).
func (a *Agent) Research(ctx context.Context, query string, sink EventSink) (*types.ResearchReport, error) {
	st := &researchState{
		query:        query,
		currentQuery: query,
		seenURLs:     make(map[string]struct{}),
	}

	emit := func(t EventType, message string, data any) {
		// Sink failures are observed, never fatal.
		if sink != nil {
			_ = sink.Emit(NewEvent(t, message, data))
		}
		a.logger.Info(message, zap.String("event", string(t)))
	}

	emit(EventStatus, fmt.Sprintf("Starting research: %q", query), nil)

	for iteration := 1; iteration <= a.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return a.report(st), err
		}
		st.iteration = iteration

		emit(EventIteration,
			fmt.Sprintf("Research iteration %d/%d", iteration, a.cfg.MaxIterations),
			IterationData{Iteration: iteration, MaxIterations: a.cfg.MaxIterations})

		// Decompose.
		emit(EventStatus, "Decomposing query into sub-queries...", nil)
		subQueries := a.decomposer.Decompose(ctx, st.currentQuery)
		for _, sq := range subQueries {
			emit(EventSubQuery, sq, SubQueryData{Query: sq})
		}

		// Retrieve.
		emit(EventStatus, fmt.Sprintf("Searching %d sub-queries across web, Wikipedia, and academic sources...", len(subQueries)), nil)
		found := a.retriever.RetrieveAll(ctx, subQueries)

		// Normalize content before scoring.
		for i := range found {
			found[i].Content = process.Truncate(process.Clean(found[i].Content), a.maxContent)
		}

		// Score and filter.
		emit(EventStatus, "Scoring source credibility...", nil)
		filtered := a.scorer.ScoreAll(found)

		newContradictions := a.scorer.DetectContradictions(filtered)
		st.contradictions = append(st.contradictions, newContradictions...)
		if len(newContradictions) > 0 {
			emit(EventStatus, fmt.Sprintf("Detected %d potential contradictions", len(newContradictions)), nil)
		}

		// Accumulate.
		for _, rec := range filtered {
			if st.addSource(rec) {
				emit(EventSourceFound, rec.Title, SourceFoundData{
					URL:              rec.URL,
					SourceType:       rec.SourceType,
					CredibilityScore: rec.CredibilityScore,
					Domain:           rec.Domain,
				})
			}
		}
		emit(EventStatus, fmt.Sprintf("Collected %d total sources", len(st.sources)), nil)

		// Evaluate. The final allowed iteration always proceeds to
		// synthesis regardless of the completeness score.
		if iteration == a.cfg.MaxIterations {
			break
		}
		if err := ctx.Err(); err != nil {
			return a.report(st), err
		}

		findings := findingsSummary(st.sources)
		eval := a.synthesizer.EvaluateCompleteness(ctx, st.query, findings)
		emit(EventStatus, fmt.Sprintf("Completeness: %.0f%%", eval.Score*100),
			CompletenessData{CompletenessScore: eval.Score})

		if eval.IsComplete && eval.Score >= a.cfg.CompletenessTarget {
			emit(EventStatus, fmt.Sprintf("Research is comprehensive enough (%.0f%%). Moving to synthesis.", eval.Score*100), nil)
			break
		}
		if len(eval.Gaps) == 0 {
			// Incomplete but nothing actionable to follow up.
			break
		}

		emit(EventStatus, fmt.Sprintf("Identified %d gaps. Generating follow-up queries...", len(eval.Gaps)), nil)
		followups := a.decomposer.Followups(ctx, st.query, findings)
		if len(followups) == 0 {
			break
		}
		// Follow-ups augment the anchor query, never replace it.
		st.currentQuery = st.query + " " + strings.Join(followups, " ")
	}

	// Synthesize.
	emit(EventSynthesis, fmt.Sprintf("Synthesizing report from %d sources...", len(st.sources)), nil)
	markdown := a.synthesizer.Synthesize(ctx, st.query, st.sources, st.contradictions)

	report := a.report(st)
	report.ReportMarkdown = markdown

	emit(EventComplete, "Research complete!", CompleteData{
		TotalSources:   len(st.sources),
		Iterations:     st.iteration,
		Contradictions: len(st.contradictions),
	})
	return report, nil
}

func (a *Agent) report(st *researchState) *types.ResearchReport {
	return &types.ResearchReport{
		Query:          st.query,
		Sources:        st.sources,
		Iterations:     st.iteration,
		Contradictions: st.contradictions,
	}
}

// findingsSummary renders the accumulated evidence (capped at 20 sources)
// as a bullet list for the evaluation and follow-up prompts.
func findingsSummary(sources []types.SourceRecord) string {
	limit := len(sources)
	if limit > 20 {
		limit = 20
	}
	var b strings.Builder
	for _, src := range sources[:limit] {
		fmt.Fprintf(&b, "- %s: %s\n", src.Title, src.Snippet)
	}
	return b.String()
}
