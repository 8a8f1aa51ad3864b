package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/repository/memory"
	"ai-docqa-be/pkg/cache"
	"ai-docqa-be/pkg/checkpoint"
	"ai-docqa-be/pkg/rag/executor"
	"ai-docqa-be/pkg/workflow"
)

// --- fakes ---

type countingRouter struct{ calls int }

func (f *countingRouter) Route(_ context.Context, _ string, _ []string, _ string) (string, error) {
	f.calls++
	return "billing", nil
}

type countingEmbedder struct{ calls int }

func (f *countingEmbedder) Generate(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return []float32{0.5, 0.5}, nil
}

type countingVectorStore struct{ calls int }

func (f *countingVectorStore) Search(_ context.Context, _ string, _ []float32, _ int) ([]workflow.Chunk, error) {
	f.calls++
	return []workflow.Chunk{
		{Source: "a.txt", Position: 0, Content: "refund policy body", Score: 0.9},
		{Source: "b.txt", Position: 0, Content: "refund window body", Score: 0.8},
		{Source: "c.txt", Position: 0, Content: "refund process body", Score: 0.7},
	}, nil
}

type countingKeywordSearch struct{ calls int }

func (f *countingKeywordSearch) Search(_ context.Context, _ string, _ string, _ int) ([]workflow.Chunk, error) {
	f.calls++
	return nil, nil
}

type countingGenerator struct{ calls int }

func (f *countingGenerator) Generate(_ context.Context, _ string, _ []workflow.Chunk, _ string) (string, error) {
	f.calls++
	return "Refunds are honored within 30 days.", nil
}

type memoryCheckpointRepo struct {
	mu      sync.Mutex
	records []*checkpoint.Record
}

func (r *memoryCheckpointRepo) Create(_ context.Context, record *checkpoint.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memoryCheckpointRepo) FindByID(_ context.Context, threadID, checkpointID string) (*checkpoint.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ThreadID == threadID && rec.CheckpointID == checkpointID {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *memoryCheckpointRepo) FindLatest(_ context.Context, threadID string) (*checkpoint.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].ThreadID == threadID {
			return r.records[i], nil
		}
	}
	return nil, nil
}

func (r *memoryCheckpointRepo) ListByThread(_ context.Context, threadID string) ([]*checkpoint.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*checkpoint.Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].ThreadID == threadID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

func (r *memoryCheckpointRepo) DeleteByThread(_ context.Context, threadID string) (int64, error) {
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

func (r *memoryCheckpointRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := int64(len(r.records))
	r.records = nil
	return removed, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fixture struct {
	service   IQAService
	router    *countingRouter
	embedder  *countingEmbedder
	vectors   *countingVectorStore
	keywords  *countingKeywordSearch
	generator *countingGenerator
	repo      *memoryCheckpointRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		router:    &countingRouter{},
		embedder:  &countingEmbedder{},
		vectors:   &countingVectorStore{},
		keywords:  &countingKeywordSearch{},
		generator: &countingGenerator{},
		repo:      &memoryCheckpointRepo{},
	}
	store := checkpoint.NewStore(f.repo, nil)
	machine := executor.NewMachine(
		f.router, f.embedder, f.vectors, f.keywords, f.generator,
		nil, store, nil, executor.DefaultConfig(), nil,
	)
	answerCache := cache.NewAnswerCache(10, 0.85, cache.JaroWinklerMatcher{}, nil)
	sessions := memory.NewSessionRepository(0)

	f.service = NewQAService(machine, store, answerCache, nil, sessions, nil, nopLogger{})
	return f
}

func ask(sessionID, question string) *dto.AskRequest {
	return &dto.AskRequest{
		UserID:     "user-1",
		SessionID:  sessionID,
		Question:   question,
		Categories: []string{"billing", "shipping"},
	}
}

// --- tests ---

func TestAnswerQuestionRunsWorkflowOnMiss(t *testing.T) {
	f := newFixture(t)

	res, err := f.service.AnswerQuestion(context.Background(), ask("s1", "What is the refund policy?"))

	assert.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "Refunds are honored within 30 days.", res.Answer)
	assert.Equal(t, "billing", res.RoutedCategory)
	assert.Equal(t, 1, f.generator.calls)
}

func TestRepeatedQuestionAnswersFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.AnswerQuestion(ctx, ask("s1", "What is the refund policy?"))
	assert.NoError(t, err)
	assert.False(t, first.FromCache)

	routerCalls, embedCalls := f.router.calls, f.embedder.calls
	vectorCalls, generatorCalls := f.vectors.calls, f.generator.calls

	// Same question modulo case and whitespace.
	second, err := f.service.AnswerQuestion(ctx, ask("s1", "  what is the REFUND policy?  "))
	assert.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, []string{"cache_lookup"}, second.WorkflowSteps)

	// The hit makes zero external calls.
	assert.Equal(t, routerCalls, f.router.calls)
	assert.Equal(t, embedCalls, f.embedder.calls)
	assert.Equal(t, vectorCalls, f.vectors.calls)
	assert.Equal(t, generatorCalls, f.generator.calls)
}

func TestCacheIsSessionScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AnswerQuestion(ctx, ask("s1", "What is the refund policy?"))
	assert.NoError(t, err)

	other, err := f.service.AnswerQuestion(ctx, ask("s2", "What is the refund policy?"))
	assert.NoError(t, err)
	assert.False(t, other.FromCache)
	assert.Equal(t, 2, f.generator.calls)
}

func TestResetSessionClearsCacheAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AnswerQuestion(ctx, ask("s1", "What is the refund policy?"))
	assert.NoError(t, err)

	assert.NoError(t, f.service.ResetSession(ctx, "s1"))

	res, err := f.service.AnswerQuestion(ctx, ask("s1", "What is the refund policy?"))
	assert.NoError(t, err)
	assert.False(t, res.FromCache)
}

func TestListReplayAndClearCheckpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AnswerQuestion(ctx, ask("s1", "What is the refund policy?"))
	assert.NoError(t, err)

	list, err := f.service.ListCheckpoints(ctx, "s1")
	assert.NoError(t, err)
	assert.Len(t, list, 3)

	replay, err := f.service.ReplayCheckpoint(ctx, "s1", "")
	assert.NoError(t, err)
	assert.Equal(t, "s1", replay.ThreadID)
	assert.Len(t, replay.Trace, 3)

	deleted, err := f.service.ClearCheckpoints(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestConversationHistoryAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AnswerQuestion(ctx, ask("s1", "What is the refund policy?"))
	assert.NoError(t, err)
	_, err = f.service.AnswerQuestion(ctx, ask("s1", "And how long does shipping take?"))
	assert.NoError(t, err)

	// Two questions, two answers.
	assert.Equal(t, 2, f.generator.calls)
}
