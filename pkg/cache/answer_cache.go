package cache

import (
	"log"
	"sync"
	"time"
)

// Entry is one cached (question -> answer) pair.
type Entry struct {
	SessionID          string
	NormalizedQuestion string
	Answer             string
	CreatedAt          time.Time
	HitCount           int
}

// DefaultCapacity bounds the number of live entries per process.
const DefaultCapacity = 500

// DefaultFuzzyThreshold is the minimum similarity ratio for a fuzzy hit.
const DefaultFuzzyThreshold = 0.85

// AnswerCache short-circuits repeated questions per session. Matching is
// two-tier: exact (case-insensitive, trimmed) first, then fuzzy against the
// configured Matcher. Eviction is FIFO by creation order once capacity is
// exceeded. Lookup scans the session's live entries; insertion is O(1).
type AnswerCache struct {
	mu        sync.Mutex
	entries   []*Entry // FIFO by creation order
	capacity  int
	threshold float64
	matcher   Matcher
	logger    *log.Logger
}

// NewAnswerCache creates a cache with the given capacity and fuzzy threshold.
// Zero values fall back to the package defaults.
func NewAnswerCache(capacity int, threshold float64, matcher Matcher, logger *log.Logger) *AnswerCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	if matcher == nil {
		matcher = JaroWinklerMatcher{}
	}
	return &AnswerCache{
		entries:   make([]*Entry, 0, capacity),
		capacity:  capacity,
		threshold: threshold,
		matcher:   matcher,
		logger:    logger,
	}
}

// Lookup returns the stored answer for a question already asked in this
// session, or ok=false on a miss. The pipeline is bypassed entirely on a hit.
func (c *AnswerCache) Lookup(sessionID, question string) (answer string, ok bool) {
	normalized := NormalizeQuestion(question)
	if normalized == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Tier 1: exact match.
	for _, e := range c.entries {
		if e.SessionID == sessionID && e.NormalizedQuestion == normalized {
			e.HitCount++
			c.logf("[CACHE] exact hit for session %s (hits=%d)", sessionID, e.HitCount)
			return e.Answer, true
		}
	}

	// Tier 2: fuzzy match.
	for _, e := range c.entries {
		if e.SessionID != sessionID {
			continue
		}
		if ratio := c.matcher.Ratio(normalized, e.NormalizedQuestion); ratio >= c.threshold {
			e.HitCount++
			c.logf("[CACHE] fuzzy hit for session %s (ratio=%.3f, hits=%d)", sessionID, ratio, e.HitCount)
			return e.Answer, true
		}
	}

	return "", false
}

// Record stores an answer for later short-circuiting, evicting the oldest
// entry when over capacity.
func (c *AnswerCache) Record(sessionID, question, answer string) {
	normalized := NormalizeQuestion(question)
	if normalized == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, &Entry{
		SessionID:          sessionID,
		NormalizedQuestion: normalized,
		Answer:             answer,
		CreatedAt:          time.Now(),
	})
	if len(c.entries) > c.capacity {
		evicted := c.entries[0]
		c.entries = c.entries[1:]
		c.logf("[CACHE] evicted oldest entry (session %s)", evicted.SessionID)
	}
}

// ResetSession drops every entry belonging to a session and returns how many
// were removed.
func (c *AnswerCache) ResetSession(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	var removed int
	for _, e := range c.entries {
		if e.SessionID == sessionID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	c.entries = kept
	return removed
}

// Len reports the number of live entries across all sessions.
func (c *AnswerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *AnswerCache) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
