package checkpoint

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-docqa-be/pkg/workflow"
)

// memoryRepository is an in-memory Repository for tests.
type memoryRepository struct {
	mu      sync.Mutex
	records []*Record
	failing bool
}

func (r *memoryRepository) Create(_ context.Context, record *Record) error {
	if r.failing {
		return errors.New("storage unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, threadID, checkpointID string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ThreadID == threadID && rec.CheckpointID == checkpointID {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) FindLatest(_ context.Context, threadID string) (*Record, error) {
	if r.failing {
		return nil, errors.New("storage unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].ThreadID == threadID {
			return r.records[i], nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) ListByThread(_ context.Context, threadID string) ([]*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].ThreadID == threadID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

func (r *memoryRepository) DeleteByThread(_ context.Context, threadID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var removed int64
	for _, rec := range r.records {
		if rec.ThreadID == threadID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return removed, nil
}

func (r *memoryRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := int64(len(r.records))
	r.records = nil
	return removed, nil
}

func testState(node workflow.Node) *workflow.State {
	st := workflow.NewState("user-1", "what is the refund policy?", []string{"billing"}, nil)
	st.Node = node
	st.AddStep("validate")
	return st
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := NewStore(&memoryRepository{}, nil)
	ctx := context.Background()

	st := testState(workflow.NodeEvaluateQuality)
	st.RoutedCategory = "billing"

	id, err := store.Save(ctx, "thread-1", st)
	assert.NoError(t, err)
	assert.NotEmpty(t, id)

	loaded, err := store.Get(ctx, "thread-1", id)
	assert.NoError(t, err)
	assert.Equal(t, workflow.NodeEvaluateQuality, loaded.Node)
	assert.Equal(t, "billing", loaded.RoutedCategory)
	assert.Equal(t, st.Question, loaded.Question)
}

func TestGetLatestWhenIDEmpty(t *testing.T) {
	store := NewStore(&memoryRepository{}, nil)
	ctx := context.Background()

	_, err := store.Save(ctx, "thread-1", testState(workflow.NodeEvaluateQuality))
	assert.NoError(t, err)
	_, err = store.Save(ctx, "thread-1", testState(workflow.NodeGenerate))
	assert.NoError(t, err)

	loaded, err := store.Get(ctx, "thread-1", "")
	assert.NoError(t, err)
	assert.Equal(t, workflow.NodeGenerate, loaded.Node)
}

func TestParentChainAndVersions(t *testing.T) {
	store := NewStore(&memoryRepository{}, nil)
	ctx := context.Background()

	first, err := store.Save(ctx, "thread-1", testState(workflow.NodeEvaluateQuality))
	assert.NoError(t, err)
	second, err := store.Save(ctx, "thread-1", testState(workflow.NodeGenerate))
	assert.NoError(t, err)

	records, err := store.List(ctx, "thread-1")
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	// Newest first; its parent is the first checkpoint.
	assert.Equal(t, second, records[0].CheckpointID)
	if assert.NotNil(t, records[0].ParentCheckpointID) {
		assert.Equal(t, first, *records[0].ParentCheckpointID)
	}
	assert.Nil(t, records[1].ParentCheckpointID)

	// Versions accumulate per node across the chain.
	assert.Equal(t, 1, records[0].ChannelVersions[string(workflow.NodeEvaluateQuality)])
	assert.Equal(t, 1, records[0].ChannelVersions[string(workflow.NodeGenerate)])
}

func TestReplayWalksChainOldestFirst(t *testing.T) {
	store := NewStore(&memoryRepository{}, nil)
	ctx := context.Background()

	_, err := store.Save(ctx, "thread-1", testState(workflow.NodeEvaluateQuality))
	assert.NoError(t, err)
	_, err = store.Save(ctx, "thread-1", testState(workflow.NodeGenerate))
	assert.NoError(t, err)
	last, err := store.Save(ctx, "thread-1", testState(workflow.NodeDone))
	assert.NoError(t, err)

	trace, err := store.Replay(ctx, "thread-1", last)
	assert.NoError(t, err)
	assert.Len(t, trace, 3)
	assert.Equal(t, workflow.NodeEvaluateQuality, trace[0].Node)
	assert.Equal(t, workflow.NodeGenerate, trace[1].Node)
	assert.Equal(t, workflow.NodeDone, trace[2].Node)
}

func TestClearThreadAndAll(t *testing.T) {
	store := NewStore(&memoryRepository{}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Save(ctx, "thread-1", testState(workflow.NodeGenerate))
		assert.NoError(t, err)
	}
	_, err := store.Save(ctx, "thread-2", testState(workflow.NodeGenerate))
	assert.NoError(t, err)

	count, err := store.Clear(ctx, "thread-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = store.Clear(ctx, "")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	store := NewStore(&memoryRepository{failing: true}, nil)

	_, err := store.Save(context.Background(), "thread-1", testState(workflow.NodeGenerate))

	var perr *workflow.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestGetMissingThreadIsPersistenceError(t *testing.T) {
	store := NewStore(&memoryRepository{}, nil)

	_, err := store.Get(context.Background(), "missing", "")

	var perr *workflow.PersistenceError
	assert.ErrorAs(t, err, &perr)
}
