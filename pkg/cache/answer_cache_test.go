package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedMatcher returns a constant ratio for any distinct pair, letting tests
// pin fuzzy behavior without depending on the metric.
type fixedMatcher struct{ ratio float64 }

func (m fixedMatcher) Ratio(a, b string) float64 {
	if NormalizeQuestion(a) == NormalizeQuestion(b) {
		return 1.0
	}
	return m.ratio
}

func TestLookupExactIgnoresCaseAndWhitespace(t *testing.T) {
	c := NewAnswerCache(10, 0.85, fixedMatcher{0}, nil)
	c.Record("s1", "What is the refund policy?", "30 days.")

	answer, ok := c.Lookup("s1", "  what is the refund POLICY?  ")
	assert.True(t, ok)
	assert.Equal(t, "30 days.", answer)
}

func TestLookupIsSessionScoped(t *testing.T) {
	c := NewAnswerCache(10, 0.85, fixedMatcher{1.0}, nil)
	c.Record("s1", "what is the refund policy?", "30 days.")

	_, ok := c.Lookup("s2", "what is the refund policy?")
	assert.False(t, ok)
}

func TestLookupFuzzyThreshold(t *testing.T) {
	tests := []struct {
		name    string
		ratio   float64
		wantHit bool
	}{
		{"above threshold", 0.90, true},
		{"exactly at threshold", 0.85, true},
		{"below threshold", 0.84, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewAnswerCache(10, 0.85, fixedMatcher{tt.ratio}, nil)
			c.Record("s1", "what is the refund policy?", "30 days.")

			_, ok := c.Lookup("s1", "whats the refund policy")
			assert.Equal(t, tt.wantHit, ok)
		})
	}
}

func TestFIFOEvictionAtCapacity(t *testing.T) {
	c := NewAnswerCache(3, 0.85, fixedMatcher{0}, nil)
	for i := 0; i < 4; i++ {
		c.Record("s1", fmt.Sprintf("question number %d please", i), fmt.Sprintf("answer %d", i))
	}

	assert.Equal(t, 3, c.Len())

	// Oldest entry evicted first.
	_, ok := c.Lookup("s1", "question number 0 please")
	assert.False(t, ok)
	answer, ok := c.Lookup("s1", "question number 3 please")
	assert.True(t, ok)
	assert.Equal(t, "answer 3", answer)
}

func TestResetSessionRemovesOnlyThatSession(t *testing.T) {
	c := NewAnswerCache(10, 0.85, fixedMatcher{0}, nil)
	c.Record("s1", "first question here", "a1")
	c.Record("s1", "second question here", "a2")
	c.Record("s2", "other session question", "b1")

	removed := c.ResetSession("s1")

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Lookup("s2", "other session question")
	assert.True(t, ok)
}

func TestHitCountIncrements(t *testing.T) {
	c := NewAnswerCache(10, 0.85, fixedMatcher{0}, nil)
	c.Record("s1", "what is the refund policy?", "30 days.")

	for i := 0; i < 3; i++ {
		_, ok := c.Lookup("s1", "what is the refund policy?")
		assert.True(t, ok)
	}
}

func TestEmptyQuestionNeverCached(t *testing.T) {
	c := NewAnswerCache(10, 0.85, fixedMatcher{1.0}, nil)
	c.Record("s1", "   ", "nothing")

	assert.Equal(t, 0, c.Len())
	_, ok := c.Lookup("s1", "")
	assert.False(t, ok)
}
