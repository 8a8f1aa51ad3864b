// Package memory holds in-process repositories for per-session state that
// does not need to outlive the process.
package memory

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"ai-docqa-be/pkg/workflow"
)

const maxTurnsPerSession = 50

// SessionRepository keeps recent conversation turns per session with an
// idle-expiry so abandoned sessions clean themselves up.
type SessionRepository struct {
	store *gocache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionRepository{
		store: gocache.New(ttl, 10*time.Minute),
	}
}

// History returns the session's turns, oldest first.
func (r *SessionRepository) History(sessionID string) []workflow.Turn {
	if v, ok := r.store.Get(sessionID); ok {
		turns := v.([]workflow.Turn)
		out := make([]workflow.Turn, len(turns))
		copy(out, turns)
		return out
	}
	return nil
}

// Append records a completed turn and refreshes the session's expiry.
func (r *SessionRepository) Append(sessionID string, turn workflow.Turn) {
	turns := []workflow.Turn{}
	if v, ok := r.store.Get(sessionID); ok {
		turns = v.([]workflow.Turn)
	}
	turns = append(turns, turn)
	if len(turns) > maxTurnsPerSession {
		turns = turns[len(turns)-maxTurnsPerSession:]
	}
	r.store.SetDefault(sessionID, turns)
}

// Reset drops the session's history.
func (r *SessionRepository) Reset(sessionID string) {
	r.store.Delete(sessionID)
}
