package rerank

import (
	"context"
	"log"
	"sort"

	"ai-docqa-be/pkg/workflow"
)

// Scorer is the external relevance-scoring call: an integer 0-100 per chunk.
type Scorer interface {
	Score(ctx context.Context, question string, chunk workflow.Chunk) (int, error)
}

// Stats is the observability payload reported alongside a rerank pass.
type Stats struct {
	Scored   int
	Failed   int
	Average  float64
	TopScore int
}

// Reranker reorders fused candidates by an externally supplied relevance
// score. A chunk whose score cannot be obtained is assigned the minimum score
// and placed after every scored chunk instead of aborting the pass.
type Reranker struct {
	scorer Scorer
	logger *log.Logger
}

// NewReranker creates a reranker around the given scorer.
func NewReranker(scorer Scorer, logger *log.Logger) *Reranker {
	return &Reranker{scorer: scorer, logger: logger}
}

type scored struct {
	chunk  workflow.Chunk
	score  int
	failed bool
	// original position keeps the sort deterministic for equal scores.
	pos int
}

// Rerank scores every chunk against the question and returns the chunks in
// descending score order. Given identical inputs and a deterministic scorer
// the output is identical.
func (r *Reranker) Rerank(ctx context.Context, question string, chunks []workflow.Chunk) ([]workflow.Chunk, Stats) {
	results := make([]scored, len(chunks))
	stats := Stats{}
	total := 0

	for i, c := range chunks {
		s, err := r.scorer.Score(ctx, question, c)
		if err != nil {
			if r.logger != nil {
				r.logger.Printf("[RERANK] score failed for %s: %v", c.Identity(), err)
			}
			results[i] = scored{chunk: c, score: 0, failed: true, pos: i}
			stats.Failed++
			continue
		}
		if s < 0 {
			s = 0
		}
		if s > 100 {
			s = 100
		}
		results[i] = scored{chunk: c, score: s, pos: i}
		stats.Scored++
		total += s
		if s > stats.TopScore {
			stats.TopScore = s
		}
	}

	if stats.Scored > 0 {
		stats.Average = float64(total) / float64(stats.Scored)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].failed != results[j].failed {
			return !results[i].failed
		}
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].pos < results[j].pos
	})

	out := make([]workflow.Chunk, len(results))
	for i, s := range results {
		out[i] = s.chunk
	}

	if r.logger != nil {
		r.logger.Printf("[RERANK] scored=%d failed=%d avg=%.1f top=%d",
			stats.Scored, stats.Failed, stats.Average, stats.TopScore)
	}
	return out, stats
}
