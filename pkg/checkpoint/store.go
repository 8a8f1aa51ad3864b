package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"ai-docqa-be/pkg/workflow"

	"github.com/google/uuid"
)

// Record is one durable snapshot of workflow state. Records are immutable
// after creation; ParentCheckpointID links each record to the immediately
// preceding save in the same thread, forming a chain usable for audit.
type Record struct {
	CheckpointID       string
	ThreadID           string
	ParentCheckpointID *string
	StateSnapshot      []byte
	ChannelVersions    map[string]int
	Timestamp          time.Time
}

// Repository is the persistence contract the store writes through.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	FindByID(ctx context.Context, threadID, checkpointID string) (*Record, error)
	FindLatest(ctx context.Context, threadID string) (*Record, error)
	ListByThread(ctx context.Context, threadID string) ([]*Record, error)
	DeleteByThread(ctx context.Context, threadID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// TraceStep is one reconstructed step of a replayed execution.
type TraceStep struct {
	CheckpointID  string         `json:"checkpoint_id"`
	Node          workflow.Node  `json:"node"`
	WorkflowSteps []string       `json:"workflow_steps"`
	ErrorMessages []string       `json:"error_messages"`
	RetryCount    int            `json:"retry_count"`
	Timestamp     time.Time      `json:"timestamp"`
	Versions      map[string]int `json:"channel_versions"`
}

// Store persists thread-scoped, parent-linked snapshots of workflow state.
// Writes for one thread are serialized; threads never contend with each
// other beyond the map guarding the per-thread locks.
type Store struct {
	repo   Repository
	logger *log.Logger

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// NewStore creates a checkpoint store over the given repository.
func NewStore(repo Repository, logger *log.Logger) *Store {
	return &Store{
		repo:    repo,
		logger:  logger,
		threads: make(map[string]*sync.Mutex),
	}
}

func (s *Store) threadLock(threadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.threads[threadID]
	if !ok {
		l = &sync.Mutex{}
		s.threads[threadID] = l
	}
	return l
}

// Save snapshots the state as a new checkpoint linked to the thread's latest
// one and returns the new checkpoint id.
func (s *Store) Save(ctx context.Context, threadID string, state *workflow.State) (string, error) {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	snapshot, err := json.Marshal(state)
	if err != nil {
		return "", &workflow.PersistenceError{Op: "save", Err: err}
	}

	var parentID *string
	versions := map[string]int{}
	latest, err := s.repo.FindLatest(ctx, threadID)
	if err != nil {
		return "", &workflow.PersistenceError{Op: "save", Err: err}
	}
	if latest != nil {
		parentID = &latest.CheckpointID
		for k, v := range latest.ChannelVersions {
			versions[k] = v
		}
	}
	versions[string(state.Node)]++

	record := &Record{
		CheckpointID:       uuid.New().String(),
		ThreadID:           threadID,
		ParentCheckpointID: parentID,
		StateSnapshot:      snapshot,
		ChannelVersions:    versions,
		Timestamp:          time.Now(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return "", &workflow.PersistenceError{Op: "save", Err: err}
	}

	if s.logger != nil {
		s.logger.Printf("[CHECKPOINT] saved %s (thread=%s node=%s)", record.CheckpointID, threadID, state.Node)
	}
	return record.CheckpointID, nil
}

// Get loads a saved state; the thread's latest when checkpointID is empty.
func (s *Store) Get(ctx context.Context, threadID, checkpointID string) (*workflow.State, error) {
	record, err := s.getRecord(ctx, threadID, checkpointID)
	if err != nil {
		return nil, err
	}
	var state workflow.State
	if err := json.Unmarshal(record.StateSnapshot, &state); err != nil {
		return nil, &workflow.PersistenceError{Op: "get", Err: err}
	}
	return &state, nil
}

func (s *Store) getRecord(ctx context.Context, threadID, checkpointID string) (*Record, error) {
	var record *Record
	var err error
	if checkpointID == "" {
		record, err = s.repo.FindLatest(ctx, threadID)
	} else {
		record, err = s.repo.FindByID(ctx, threadID, checkpointID)
	}
	if err != nil {
		return nil, &workflow.PersistenceError{Op: "get", Err: err}
	}
	if record == nil {
		return nil, &workflow.PersistenceError{Op: "get", Err: fmt.Errorf("no checkpoint for thread %s", threadID)}
	}
	return record, nil
}

// List returns the thread's checkpoints ordered newest first.
func (s *Store) List(ctx context.Context, threadID string) ([]*Record, error) {
	records, err := s.repo.ListByThread(ctx, threadID)
	if err != nil {
		return nil, &workflow.PersistenceError{Op: "list", Err: err}
	}
	return records, nil
}

// Replay reconstructs the execution trace ending at the given checkpoint by
// walking the parent chain back to the root. No external call is repeated;
// the trace is read purely from the stored snapshots.
func (s *Store) Replay(ctx context.Context, threadID, checkpointID string) ([]TraceStep, error) {
	record, err := s.getRecord(ctx, threadID, checkpointID)
	if err != nil {
		return nil, err
	}

	var chain []*Record
	for record != nil {
		chain = append(chain, record)
		if record.ParentCheckpointID == nil {
			break
		}
		record, err = s.repo.FindByID(ctx, threadID, *record.ParentCheckpointID)
		if err != nil {
			return nil, &workflow.PersistenceError{Op: "replay", Err: err}
		}
	}

	// Oldest first.
	trace := make([]TraceStep, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		rec := chain[i]
		var state workflow.State
		if err := json.Unmarshal(rec.StateSnapshot, &state); err != nil {
			return nil, &workflow.PersistenceError{Op: "replay", Err: err}
		}
		trace = append(trace, TraceStep{
			CheckpointID:  rec.CheckpointID,
			Node:          state.Node,
			WorkflowSteps: state.WorkflowSteps,
			ErrorMessages: state.ErrorMessages,
			RetryCount:    state.RetryCount,
			Timestamp:     rec.Timestamp,
			Versions:      rec.ChannelVersions,
		})
	}
	return trace, nil
}

// Clear deletes the thread's checkpoints, or every checkpoint when threadID
// is empty, returning the number removed.
func (s *Store) Clear(ctx context.Context, threadID string) (int64, error) {
	var count int64
	var err error
	if threadID == "" {
		count, err = s.repo.DeleteAll(ctx)
	} else {
		lock := s.threadLock(threadID)
		lock.Lock()
		defer lock.Unlock()
		count, err = s.repo.DeleteByThread(ctx, threadID)
	}
	if err != nil {
		return 0, &workflow.PersistenceError{Op: "clear", Err: err}
	}
	if s.logger != nil {
		s.logger.Printf("[CHECKPOINT] cleared %d records (thread=%q)", count, threadID)
	}
	return count, nil
}
