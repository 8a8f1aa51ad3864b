package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStateDefaults(t *testing.T) {
	st := NewState("user-1", "what is the refund policy?", nil, nil)

	assert.Equal(t, NodeValidate, st.Node)
	assert.NotNil(t, st.AvailableCategories)
	assert.NotNil(t, st.ConversationHistory)
	assert.NotNil(t, st.ContextChunks)
	assert.NotNil(t, st.WorkflowSteps)
	assert.NotNil(t, st.ErrorMessages)
	assert.NotNil(t, st.CitationSources)
	assert.False(t, st.FallbackTriggered)
	assert.Zero(t, st.RetryCount)
}

func TestIsTerminal(t *testing.T) {
	st := NewState("user-1", "question text here", nil, nil)

	for _, node := range []Node{NodeValidate, NodeRouteAndRetrieve, NodeEvaluateQuality, NodeHybridSearch, NodeDedup, NodeGenerate, NodeFormat} {
		st.Node = node
		assert.False(t, st.IsTerminal(), "node %s", node)
	}
	st.Node = NodeDone
	assert.True(t, st.IsTerminal())
	st.Node = NodeError
	assert.True(t, st.IsTerminal())
}

func TestHistorySummaryKeepsLastTurns(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
		{Role: "assistant", Content: "fourth"},
	}
	st := NewState("user-1", "question text here", nil, history)

	assert.Equal(t, "user: third\nassistant: fourth", st.HistorySummary(2))
	assert.Equal(t, "", st.HistorySummary(0))

	empty := NewState("user-1", "question text here", nil, nil)
	assert.Equal(t, "", empty.HistorySummary(4))
}

func TestDedupKeepsHighestScorePerIdentity(t *testing.T) {
	chunks := []Chunk{
		{Source: "a.txt", Position: 0, Score: 0.9},
		{Source: "b.txt", Position: 1, Score: 0.8},
		{Source: "a.txt", Position: 0, Score: 0.95}, // same identity, higher score
		{Source: "a.txt", Position: 1, Score: 0.5},  // same source, different position
	}

	out := Dedup(chunks)

	assert.Len(t, out, 3)
	assert.Equal(t, "a.txt", out[0].Source)
	assert.Equal(t, 0.95, out[0].Score)
	assert.Equal(t, "b.txt", out[1].Source)
	assert.Equal(t, 1, out[2].Position)
}

func TestDedupIsIdempotent(t *testing.T) {
	chunks := []Chunk{
		{Source: "a.txt", Position: 0, Score: 0.9},
		{Source: "b.txt", Position: 0, Score: 0.8},
	}

	once := Dedup(chunks)
	twice := Dedup(once)

	assert.Equal(t, once, twice)
}

func TestChunkIdentity(t *testing.T) {
	a := Chunk{Source: "doc.txt", Position: 3}
	b := Chunk{Source: "doc.txt", Position: 3, Content: "different body", Score: 0.2}
	c := Chunk{Source: "doc.txt", Position: 4}

	assert.Equal(t, a.Identity(), b.Identity())
	assert.NotEqual(t, a.Identity(), c.Identity())
}

func TestStateSurvivesJSONRoundTrip(t *testing.T) {
	st := NewState("user-1", "what is the refund policy?", []string{"billing"}, []Turn{{Role: "user", Content: "hi"}})
	st.Node = NodeGenerate
	st.RoutedCategory = "billing"
	st.ContextChunks = []Chunk{{Source: "a.txt", Position: 0, Content: "refunds", Score: 0.9}}
	st.AddStep("validate")
	st.RetryCount = 1
	st.FallbackTriggered = true

	data, err := json.Marshal(st)
	assert.NoError(t, err)

	var loaded State
	assert.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, *st, loaded)
}
