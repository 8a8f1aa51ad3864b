package quality

import (
	"log"

	"ai-docqa-be/pkg/workflow"
)

// Config holds the thresholds that separate the fast path from hybrid search.
type Config struct {
	MinChunks   int
	MinAvgScore float64
}

// DefaultConfig returns the standard quality thresholds.
func DefaultConfig() Config {
	return Config{
		MinChunks:   3,
		MinAvgScore: 0.55,
	}
}

// Decision is the outcome of a quality evaluation. Falling below threshold is
// a routing decision, not an error.
type Decision struct {
	FastPath   bool
	ChunkCount int
	AvgScore   float64
}

// Evaluator decides whether retrieval was good enough to skip hybrid search.
type Evaluator struct {
	config Config
	logger *log.Logger
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(config Config, logger *log.Logger) *Evaluator {
	return &Evaluator{config: config, logger: logger}
}

// Evaluate computes chunk count and average similarity. Both must exceed the
// configured thresholds to take the fast path.
func (e *Evaluator) Evaluate(chunks []workflow.Chunk) Decision {
	d := Decision{ChunkCount: len(chunks)}
	if len(chunks) > 0 {
		var sum float64
		for _, c := range chunks {
			sum += c.Score
		}
		d.AvgScore = sum / float64(len(chunks))
	}
	d.FastPath = d.ChunkCount >= e.config.MinChunks && d.AvgScore >= e.config.MinAvgScore

	if e.logger != nil {
		e.logger.Printf("[QUALITY] chunks=%d avg=%.3f fast_path=%v", d.ChunkCount, d.AvgScore, d.FastPath)
	}
	return d
}
