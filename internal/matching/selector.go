package matching

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/motorgrid/lotsync/internal/config"
	"github.com/motorgrid/lotsync/internal/model"
)

// Selector runs the scorer across the full catalog for each source
// record and picks the best candidate. Pure: neither input collection
// is mutated, so source records can be processed in parallel.
type Selector struct {
	scorer *Scorer
	cfg    config.MatcherConfig
}

// NewSelector creates a Selector with the given matcher configuration.
func NewSelector(cfg config.MatcherConfig) *Selector {
	return &Selector{scorer: NewScorer(cfg), cfg: cfg}
}

// Select matches one source record against the catalog. Candidates are
// ranked descending by composite score; ties keep first-seen catalog
// order, which makes results deterministic for equal inputs.
func (s *Selector) Select(src model.SourceRecord, catalog []model.CatalogRecord) model.MatchResult {
	var candidates []model.MatchCandidate
	for _, cat := range catalog {
		if c, ok := s.scorer.Score(src, cat); ok {
			candidates = append(candidates, *c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	result := model.MatchResult{Source: src, Candidates: candidates}
	if len(candidates) > 0 {
		result.Best = &candidates[0]
	}
	return result
}

// SelectAll fans out Select across source records. Each worker writes
// only its own result slot, so no synchronization beyond the group is
// needed. Results keep source order.
func (s *Selector) SelectAll(ctx context.Context, sources []model.SourceRecord, catalog []model.CatalogRecord) ([]model.MatchResult, error) {
	results := make([]model.MatchResult, len(sources))

	workers := s.cfg.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Select(src, catalog)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	matched, high := 0, 0
	for i := range results {
		if results[i].HasMatch() {
			matched++
		}
		if results[i].HasHighConfidence() {
			high++
		}
	}
	zap.L().Info("matching: selection complete",
		zap.Int("sources", len(sources)),
		zap.Int("catalog", len(catalog)),
		zap.Int("matched", matched),
		zap.Int("high_confidence", high),
	)

	return results, nil
}
