// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve fans research sub-queries out to heterogeneous source
// connectors and merges their results into one deduplicated evidence set.
// Each connector (web, Wikipedia, arXiv, Semantic Scholar) implements the
// Connector interface per the Strategy pattern.
package retrieve

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Connector searches a single source. A connector failure yields zero
// results for that source without affecting the others.
type Connector interface {
	Name() string
	Search(ctx context.Context, query string) ([]types.SourceRecord, error)
}

// Retriever fans sub-queries out across all configured connectors.
type Retriever struct {
	connectors []Connector
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewRetriever builds a Retriever over the given connectors. MaxConcurrent
// caps in-flight connector calls across the whole fan-out; RequestsPerMinute
// throttles outbound requests. Zero disables either bound.
func NewRetriever(connectors []Connector, cfg types.SearchConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retriever{connectors: connectors, logger: logger}
	if cfg.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	if cfg.RequestsPerMinute > 0 {
		limit := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
		burst := len(connectors)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(limit, burst)
	}
	return r
}

// RetrieveAll runs every (sub-query, connector) pair concurrently and
// returns the merged results deduplicated by URL. First occurrence wins,
// ordered by sub-query index then connector registration order, so the
// output is deterministic regardless of goroutine scheduling. A failing
// branch never cancels or blocks its siblings.
func (r *Retriever) RetrieveAll(ctx context.Context, subQueries []string) []types.SourceRecord {
	slots := make([][][]types.SourceRecord, len(subQueries))
	for i := range slots {
		slots[i] = make([][]types.SourceRecord, len(r.connectors))
	}

	var wg sync.WaitGroup
	for qi, query := range subQueries {
		for ci, conn := range r.connectors {
			wg.Add(1)
			go func(qi, ci int, query string, conn Connector) {
				defer wg.Done()

				if r.sem != nil {
					if err := r.sem.Acquire(ctx, 1); err != nil {
						return
					}
					defer r.sem.Release(1)
				}
				if r.limiter != nil {
					if err := r.limiter.Wait(ctx); err != nil {
						return
					}
				}

				results, err := conn.Search(ctx, query)
				if err != nil {
					r.logger.Warn("connector search failed",
						zap.String("connector", conn.Name()),
						zap.String("query", query),
						zap.Error(err))
					return
				}
				slots[qi][ci] = results
			}(qi, ci, query, conn)
		}
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var merged []types.SourceRecord
	for qi := range slots {
		for ci := range slots[qi] {
			for _, rec := range slots[qi][ci] {
				if rec.URL == "" {
					continue
				}
				if _, dup := seen[rec.URL]; dup {
					continue
				}
				seen[rec.URL] = struct{}{}
				merged = append(merged, rec)
			}
		}
	}
	return merged
}

// clip bounds s to at most max bytes without splitting a UTF-8 sequence.
func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := 0
	for i := range s {
		if i > max {
			break
		}
		cut = i
	}
	return s[:cut]
}
