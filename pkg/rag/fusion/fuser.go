package fusion

import (
	"fmt"
	"log"
	"sort"

	"ai-docqa-be/pkg/workflow"
)

// Config encapsulates fusion parameters. Weights are configuration, not
// constants; they must each be non-negative and sum to at most 1 so a
// deployment can discount one source without renormalizing.
type Config struct {
	SemanticWeight float64
	KeywordWeight  float64
	FinalK         int
}

// DefaultConfig returns the standard 0.7 semantic / 0.3 keyword split.
func DefaultConfig() Config {
	return Config{
		SemanticWeight: 0.7,
		KeywordWeight:  0.3,
		FinalK:         10,
	}
}

// Validate rejects weight combinations the fuser cannot honor.
func (c Config) Validate() error {
	if c.SemanticWeight < 0 || c.KeywordWeight < 0 {
		return fmt.Errorf("fusion weights must be non-negative (semantic=%.2f keyword=%.2f)", c.SemanticWeight, c.KeywordWeight)
	}
	if sum := c.SemanticWeight + c.KeywordWeight; sum > 1.0+1e-9 {
		return fmt.Errorf("fusion weights must sum to at most 1, got %.2f", sum)
	}
	if c.FinalK <= 0 {
		return fmt.Errorf("final_k must be positive, got %d", c.FinalK)
	}
	return nil
}

// Fuser merges ranked semantic and keyword result lists into one ranked list.
type Fuser struct {
	config Config
	logger *log.Logger
}

// NewFuser creates a fuser with the given configuration.
func NewFuser(config Config, logger *log.Logger) *Fuser {
	return &Fuser{config: config, logger: logger}
}

type fusedEntry struct {
	chunk workflow.Chunk
	score float64
	// rank used as the deterministic tie-break: original semantic rank,
	// keyword-only entries rank after every semantic entry.
	rank int
}

// Fuse normalizes both lists to [0,1], combines overlapping identities with
// the configured weights and single-source identities with their weighted
// score alone, then sorts descending and truncates to FinalK. Equal combined
// scores break by original semantic rank, then identity.
func (f *Fuser) Fuse(semantic, keyword []workflow.Chunk) []workflow.Chunk {
	semScores := normalize(semantic)
	kwScores := normalize(keyword)

	entries := make(map[string]*fusedEntry, len(semantic)+len(keyword))

	for i, c := range semantic {
		entries[c.Identity()] = &fusedEntry{
			chunk: c,
			score: f.config.SemanticWeight * semScores[i],
			rank:  i,
		}
	}
	for i, c := range keyword {
		weighted := f.config.KeywordWeight * kwScores[i]
		if e, ok := entries[c.Identity()]; ok {
			e.score += weighted
			continue
		}
		entries[c.Identity()] = &fusedEntry{
			chunk: c,
			score: weighted,
			rank:  len(semantic) + i,
		}
	}

	fused := make([]*fusedEntry, 0, len(entries))
	for _, e := range entries {
		fused = append(fused, e)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		if fused[i].rank != fused[j].rank {
			return fused[i].rank < fused[j].rank
		}
		return fused[i].chunk.Identity() < fused[j].chunk.Identity()
	})

	if len(fused) > f.config.FinalK {
		fused = fused[:f.config.FinalK]
	}

	out := make([]workflow.Chunk, len(fused))
	for i, e := range fused {
		c := e.chunk
		c.Score = e.score
		out[i] = c
	}

	if f.logger != nil {
		f.logger.Printf("[FUSION] %d semantic + %d keyword -> %d fused (final_k=%d)",
			len(semantic), len(keyword), len(out), f.config.FinalK)
	}
	return out
}

// normalize min-max scales a list's scores to [0,1]. A list whose scores are
// all equal maps to 1.0 for every element.
func normalize(chunks []workflow.Chunk) []float64 {
	scores := make([]float64, len(chunks))
	if len(chunks) == 0 {
		return scores
	}
	min, max := chunks[0].Score, chunks[0].Score
	for _, c := range chunks {
		if c.Score < min {
			min = c.Score
		}
		if c.Score > max {
			max = c.Score
		}
	}
	for i, c := range chunks {
		if max == min {
			scores[i] = 1.0
			continue
		}
		scores[i] = (c.Score - min) / (max - min)
	}
	return scores
}
