package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-docqa-be/pkg/workflow"
)

type mapScorer struct {
	scores map[string]int
	errs   map[string]error
}

func (m *mapScorer) Score(_ context.Context, _ string, chunk workflow.Chunk) (int, error) {
	if err, ok := m.errs[chunk.Source]; ok {
		return 0, err
	}
	return m.scores[chunk.Source], nil
}

func chunks(sources ...string) []workflow.Chunk {
	out := make([]workflow.Chunk, len(sources))
	for i, s := range sources {
		out[i] = workflow.Chunk{Source: s, Position: 0, Content: s}
	}
	return out
}

func TestRerankOrdersByScoreDescending(t *testing.T) {
	scorer := &mapScorer{scores: map[string]int{"a": 40, "b": 90, "c": 65}}
	r := NewReranker(scorer, nil)

	out, stats := r.Rerank(context.Background(), "q", chunks("a", "b", "c"))

	assert.Equal(t, "b", out[0].Source)
	assert.Equal(t, "c", out[1].Source)
	assert.Equal(t, "a", out[2].Source)
	assert.Equal(t, 3, stats.Scored)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 90, stats.TopScore)
	assert.InDelta(t, 65.0, stats.Average, 1e-9)
}

func TestRerankFailedScoresGoLast(t *testing.T) {
	scorer := &mapScorer{
		scores: map[string]int{"a": 10, "c": 20},
		errs:   map[string]error{"b": errors.New("unparseable response")},
	}
	r := NewReranker(scorer, nil)

	out, stats := r.Rerank(context.Background(), "q", chunks("a", "b", "c"))

	assert.Equal(t, "c", out[0].Source)
	assert.Equal(t, "a", out[1].Source)
	assert.Equal(t, "b", out[2].Source)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Scored)
}

func TestRerankClampsOutOfRangeScores(t *testing.T) {
	scorer := &mapScorer{scores: map[string]int{"a": 150, "b": -20}}
	r := NewReranker(scorer, nil)

	_, stats := r.Rerank(context.Background(), "q", chunks("a", "b"))

	assert.Equal(t, 100, stats.TopScore)
	assert.InDelta(t, 50.0, stats.Average, 1e-9)
}

func TestRerankTiesKeepOriginalOrder(t *testing.T) {
	scorer := &mapScorer{scores: map[string]int{"a": 50, "b": 50, "c": 50}}
	r := NewReranker(scorer, nil)

	out, _ := r.Rerank(context.Background(), "q", chunks("a", "b", "c"))

	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].Source, out[1].Source, out[2].Source})
}

func TestRerankIsIdempotentForDeterministicScorer(t *testing.T) {
	scorer := &mapScorer{scores: map[string]int{"a": 70, "b": 30, "c": 70}}
	r := NewReranker(scorer, nil)
	input := chunks("a", "b", "c")

	first, _ := r.Rerank(context.Background(), "q", input)
	second, _ := r.Rerank(context.Background(), "q", input)

	assert.Equal(t, first, second)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"85", 85, false},
		{" 42 is my score", 42, false},
		{"100", 100, false},
		{"score: high", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseScore(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
