package retry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-docqa-be/pkg/workflow"
)

func newState() *workflow.State {
	return workflow.NewState("user-1", "what is the refund policy?", []string{"billing"}, nil)
}

func TestShouldRetryBoundedByBudget(t *testing.T) {
	c := NewController(2, nil)
	st := newState()
	toolErr := &workflow.ToolExecutionError{Tool: "vector_search", Err: errors.New("timeout")}

	assert.True(t, c.ShouldRetry(st, toolErr))
	c.MarkFallback(st)
	assert.True(t, c.ShouldRetry(st, toolErr))
	c.MarkFallback(st)
	assert.False(t, c.ShouldRetry(st, toolErr))
	assert.Equal(t, 2, st.RetryCount)
}

func TestValidationErrorsAreNeverRetried(t *testing.T) {
	c := NewController(2, nil)
	st := newState()

	verr := &workflow.ValidationError{Reason: "question is too short"}
	assert.False(t, c.ShouldRetry(st, verr))

	// Wrapped validation errors are still terminal.
	wrapped := &workflow.ToolExecutionError{Tool: "validator", Err: verr}
	assert.False(t, c.ShouldRetry(st, wrapped))
}

func TestMarkFallbackWidensAndSticks(t *testing.T) {
	c := NewController(2, nil)
	st := newState()
	st.RoutedCategory = "billing"

	c.MarkFallback(st)

	assert.True(t, st.FallbackTriggered)
	assert.Equal(t, workflow.CategoryAll, st.RoutedCategory)
	assert.Equal(t, 1, st.RetryCount)

	// A later retry never narrows the category or clears the flag.
	c.MarkRetry(st)
	assert.True(t, st.FallbackTriggered)
	assert.Equal(t, workflow.CategoryAll, st.RoutedCategory)
	assert.Equal(t, 2, st.RetryCount)
}

func TestRetryCountIsMonotonic(t *testing.T) {
	c := NewController(5, nil)
	st := newState()

	for i := 1; i <= 5; i++ {
		c.MarkRetry(st)
		assert.Equal(t, i, st.RetryCount)
	}
}
