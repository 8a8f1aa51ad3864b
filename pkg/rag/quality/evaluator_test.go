package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-docqa-be/pkg/workflow"
)

func chunksWithScores(scores ...float64) []workflow.Chunk {
	out := make([]workflow.Chunk, len(scores))
	for i, s := range scores {
		out[i] = workflow.Chunk{Source: "doc.txt", Position: i, Score: s}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		scores       []float64
		wantFastPath bool
	}{
		{"enough chunks with strong scores", []float64{0.9, 0.8, 0.7}, true},
		{"exactly at both thresholds", []float64{0.55, 0.55, 0.55}, true},
		{"too few chunks despite strong scores", []float64{0.95, 0.9}, false},
		{"enough chunks but weak scores", []float64{0.5, 0.4, 0.3}, false},
		{"no chunks", nil, false},
		{"one weak outlier pulls the average down", []float64{0.9, 0.9, 0.0, 0.0}, false},
	}

	e := NewEvaluator(DefaultConfig(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Evaluate(chunksWithScores(tt.scores...))
			assert.Equal(t, tt.wantFastPath, d.FastPath)
			assert.Equal(t, len(tt.scores), d.ChunkCount)
		})
	}
}

func TestEvaluateReportsAverage(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), nil)

	d := e.Evaluate(chunksWithScores(0.6, 0.8, 1.0))
	assert.InDelta(t, 0.8, d.AvgScore, 1e-9)
}

func TestEvaluateCustomThresholds(t *testing.T) {
	e := NewEvaluator(Config{MinChunks: 1, MinAvgScore: 0.9}, nil)

	assert.True(t, e.Evaluate(chunksWithScores(0.95)).FastPath)
	assert.False(t, e.Evaluate(chunksWithScores(0.85)).FastPath)
}
