// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credibility scores source reliability and flags potential
// contradictions between sources. Scores are deterministic heuristics built
// from domain reputation, source type, and content signals.
package credibility

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Sub-score weights. Domain reputation dominates.
const (
	domainWeight  = 0.5
	typeWeight    = 0.25
	contentWeight = 0.25
)

// sourceTypeScores are the base scores per connector category.
var sourceTypeScores = map[types.SourceType]float64{
	types.SourceAcademic:  0.90,
	types.SourceWikipedia: 0.80,
	types.SourceWeb:       0.50,
}

// dataMarkers are terms whose presence suggests factual, evidence-backed
// content. Each distinct marker adds 0.03 to the content sub-score, capped
// at 0.15.
var dataMarkers = []string{
	"%", "study", "research", "data", "according to", "published",
	"found that", "results", "evidence", "analysis",
}

// ScorerConfig overrides the scorer defaults. Zero values keep the default.
type ScorerConfig struct {
	// Threshold is the minimum credibility score kept by ScoreAll.
	Threshold float64

	// DomainScores replaces the built-in domain reputation table.
	DomainScores map[string]float64

	// NegationPairs replaces the built-in contradiction vocabulary.
	NegationPairs [][2]string
}

// Scorer scores and filters source records.
type Scorer struct {
	threshold     float64
	domainScores  map[string]float64
	negationPairs [][2]string
	logger        *zap.Logger
}

// NewScorer builds a Scorer. A nil logger falls back to a no-op logger.
func NewScorer(cfg ScorerConfig, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scorer{
		threshold:     cfg.Threshold,
		domainScores:  cfg.DomainScores,
		negationPairs: cfg.NegationPairs,
		logger:        logger,
	}
	if s.threshold == 0 {
		s.threshold = 0.5
	}
	if s.domainScores == nil {
		s.domainScores = domainScores
	}
	if s.negationPairs == nil {
		s.negationPairs = negationPairs
	}
	return s
}

// Score computes the weighted credibility score for one record and writes it
// back onto the record. Scoring a record twice overwrites the first score.
func (s *Scorer) Score(r *types.SourceRecord) float64 {
	domain := s.DomainScore(r.Domain)

	typeScore, ok := sourceTypeScores[r.SourceType]
	if !ok {
		typeScore = 0.5
	}

	content := s.contentQuality(r)

	total := domainWeight*domain + typeWeight*typeScore + contentWeight*content
	r.CredibilityScore = math.Round(total*1000) / 1000
	return r.CredibilityScore
}

// ScoreAll scores every record, sorts descending by score (stable, so ties
// keep their prior relative order), and drops records below the threshold.
// Dropped records are not retained anywhere.
func (s *Scorer) ScoreAll(records []types.SourceRecord) []types.SourceRecord {
	for i := range records {
		s.Score(&records[i])
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CredibilityScore > records[j].CredibilityScore
	})

	filtered := records[:0:len(records)]
	for _, r := range records {
		if r.CredibilityScore >= s.threshold {
			filtered = append(filtered, r)
		}
	}
	if removed := len(records) - len(filtered); removed > 0 {
		s.logger.Info("filtered low-credibility sources",
			zap.Int("removed", removed),
			zap.Float64("threshold", s.threshold))
	}
	return filtered
}

// DomainScore looks up the reputation of a domain. Unknown domains fall
// back to TLD heuristics; an empty domain scores 0.4.
func (s *Scorer) DomainScore(domain string) float64 {
	if domain == "" {
		return 0.4
	}
	if score, ok := s.domainScores[domain]; ok {
		return score
	}

	// Walk parent suffixes so subdomains inherit their parent's reputation
	// (e.g. "news.bbc.co.uk" matches "bbc.co.uk").
	parts := strings.Split(domain, ".")
	for i := 1; i < len(parts); i++ {
		parent := strings.Join(parts[i:], ".")
		if score, ok := s.domainScores[parent]; ok {
			return score
		}
	}

	switch {
	case strings.HasSuffix(domain, ".edu") || strings.HasSuffix(domain, ".ac.uk"):
		return 0.85
	case strings.HasSuffix(domain, ".gov"):
		return 0.88
	case strings.HasSuffix(domain, ".org"):
		return 0.65
	}
	return 0.50
}

// contentQuality scores content signals: length, data markers, and the
// academic bonus. Records with no content and no snippet score 0.3.
func (s *Scorer) contentQuality(r *types.SourceRecord) float64 {
	content := r.Content
	if content == "" {
		content = r.Snippet
	}
	if content == "" {
		return 0.3
	}

	score := 0.5

	if len(content) > 1000 {
		score += 0.15
	} else if len(content) > 500 {
		score += 0.10
	}

	lower := strings.ToLower(content)
	markers := 0
	for _, m := range dataMarkers {
		if strings.Contains(lower, m) {
			markers++
		}
	}
	score += math.Min(float64(markers)*0.03, 0.15)

	if r.SourceType == types.SourceAcademic {
		score += 0.15
	}

	return math.Min(score, 1.0)
}

// DetectContradictions compares every unordered pair of records for
// opposing-claim vocabulary. This is a lexical heuristic surfaced to the
// synthesizer as a signal; false positives are expected.
func (s *Scorer) DetectContradictions(records []types.SourceRecord) []types.Contradiction {
	var found []types.Contradiction

	for i, a := range records {
		textA := strings.ToLower(a.Content + a.Snippet)
		for _, b := range records[i+1:] {
			textB := strings.ToLower(b.Content + b.Snippet)
			for _, pair := range s.negationPairs {
				pos, neg := pair[0], pair[1]
				if strings.Contains(textA, pos) && strings.Contains(textB, neg) {
					found = append(found, types.Contradiction{
						SourceA: a.Title,
						SourceB: b.Title,
						Signal:  fmt.Sprintf("'%s' vs '%s'", pos, neg),
					})
				} else if strings.Contains(textA, neg) && strings.Contains(textB, pos) {
					found = append(found, types.Contradiction{
						SourceA: a.Title,
						SourceB: b.Title,
						Signal:  fmt.Sprintf("'%s' vs '%s'", neg, pos),
					})
				}
			}
		}
	}
	return found
}
