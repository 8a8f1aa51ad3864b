package retry

import (
	"errors"
	"log"

	"ai-docqa-be/pkg/workflow"
)

// Controller enforces the request-scoped retry and fallback policy: a bounded
// number of retries, triggered only by recoverable tool failures or empty
// results, with category widening that is never undone within a request.
type Controller struct {
	maxRetries int
	logger     *log.Logger
}

// NewController creates a controller with the given retry bound.
func NewController(maxRetries int, logger *log.Logger) *Controller {
	return &Controller{maxRetries: maxRetries, logger: logger}
}

// MaxRetries returns the configured bound.
func (c *Controller) MaxRetries() int {
	return c.maxRetries
}

// ShouldRetry reports whether the state may re-attempt after err. Validation
// failures are terminal and never retried; anything recoverable is retried
// while the budget lasts.
func (c *Controller) ShouldRetry(s *workflow.State, err error) bool {
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		return false
	}
	return s.RetryCount < c.maxRetries
}

// MarkRetry consumes one retry from the budget.
func (c *Controller) MarkRetry(s *workflow.State) {
	s.RetryCount++
	if c.logger != nil {
		c.logger.Printf("[RETRY] attempt %d/%d", s.RetryCount, c.maxRetries)
	}
}

// MarkFallback consumes one retry and widens routing to every category.
// FallbackTriggered stays set for the rest of the request; the category set
// is never re-narrowed after widening.
func (c *Controller) MarkFallback(s *workflow.State) {
	s.RetryCount++
	s.FallbackTriggered = true
	s.RoutedCategory = workflow.CategoryAll
	if c.logger != nil {
		c.logger.Printf("[RETRY] fallback triggered, category widened to %q (attempt %d/%d)",
			workflow.CategoryAll, s.RetryCount, c.maxRetries)
	}
}
