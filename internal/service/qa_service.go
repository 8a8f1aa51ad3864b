package service

import (
	"context"
	"time"

	"ai-docqa-be/internal/constant"
	"ai-docqa-be/internal/dto"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/internal/repository/contract"
	"ai-docqa-be/internal/repository/memory"
	"ai-docqa-be/pkg/cache"
	"ai-docqa-be/pkg/checkpoint"
	"ai-docqa-be/pkg/rag/executor"
	"ai-docqa-be/pkg/workflow"
)

// IQAService defines the question-answering service interface.
type IQAService interface {
	AnswerQuestion(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
	ListCheckpoints(ctx context.Context, threadID string) ([]dto.CheckpointResponse, error)
	ReplayCheckpoint(ctx context.Context, threadID, checkpointID string) (*dto.ReplayResponse, error)
	ResumeCheckpoint(ctx context.Context, threadID, checkpointID string) (*dto.AskResponse, error)
	ClearCheckpoints(ctx context.Context, threadID string) (int64, error)
	ResetSession(ctx context.Context, sessionID string) error
}

type qaService struct {
	machine      *executor.Machine
	checkpoints  *checkpoint.Store
	answerCache  *cache.AnswerCache
	redisAnswers *cache.RedisAnswerStore // optional cross-restart exact tier
	sessions     *memory.SessionRepository
	documents    contract.DocumentRepository
	logger       logger.ILogger
}

func NewQAService(
	machine *executor.Machine,
	checkpoints *checkpoint.Store,
	answerCache *cache.AnswerCache,
	redisAnswers *cache.RedisAnswerStore,
	sessions *memory.SessionRepository,
	documents contract.DocumentRepository,
	log logger.ILogger,
) IQAService {
	return &qaService{
		machine:      machine,
		checkpoints:  checkpoints,
		answerCache:  answerCache,
		redisAnswers: redisAnswers,
		sessions:     sessions,
		documents:    documents,
		logger:       log,
	}
}

// AnswerQuestion is the cache-first entry point: a hit skips the workflow
// entirely; a miss runs the state machine and records the result. Cache
// failures are treated as misses and never surface to the caller.
func (s *qaService) AnswerQuestion(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	started := time.Now()

	if answer, ok := s.lookupCached(ctx, req.SessionID, req.Question); ok {
		s.logger.Info("QA", "answered from cache", map[string]interface{}{
			"session_id": req.SessionID,
			"took_ms":    time.Since(started).Milliseconds(),
		})
		return &dto.AskResponse{
			Answer:          answer,
			CitationSources: []workflow.CitationSource{},
			SearchStrategy:  workflow.StrategyFastPath,
			FromCache:       true,
			WorkflowSteps:   []string{"cache_lookup"},
		}, nil
	}

	categories := req.Categories
	if len(categories) == 0 {
		categories = s.availableCategories(ctx)
	}
	history := s.sessions.History(req.SessionID)

	st := workflow.NewState(req.UserID, req.Question, categories, history)
	out := s.machine.Run(ctx, req.SessionID, st)

	if out.Node == workflow.NodeDone && !out.FallbackTriggered && len(out.ErrorMessages) == 0 {
		s.recordCached(ctx, req.SessionID, req.Question, out.FinalAnswer)
	}
	if out.Node == workflow.NodeDone {
		s.sessions.Append(req.SessionID, workflow.Turn{Role: constant.TurnRoleUser, Content: req.Question})
		s.sessions.Append(req.SessionID, workflow.Turn{Role: constant.TurnRoleAssistant, Content: out.FinalAnswer})
	}

	s.logger.Info("QA", "workflow finished", map[string]interface{}{
		"session_id": req.SessionID,
		"node":       string(out.Node),
		"strategy":   string(out.SearchStrategy),
		"retries":    out.RetryCount,
		"took_ms":    time.Since(started).Milliseconds(),
	})
	return toAskResponse(out), nil
}

func (s *qaService) ListCheckpoints(ctx context.Context, threadID string) ([]dto.CheckpointResponse, error) {
	records, err := s.checkpoints.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CheckpointResponse, len(records))
	for i, r := range records {
		out[i] = dto.CheckpointResponse{
			CheckpointID:       r.CheckpointID,
			ParentCheckpointID: r.ParentCheckpointID,
			ChannelVersions:    r.ChannelVersions,
			CreatedAt:          r.Timestamp,
		}
	}
	return out, nil
}

func (s *qaService) ReplayCheckpoint(ctx context.Context, threadID, checkpointID string) (*dto.ReplayResponse, error) {
	trace, err := s.checkpoints.Replay(ctx, threadID, checkpointID)
	if err != nil {
		return nil, err
	}
	return &dto.ReplayResponse{ThreadID: threadID, Trace: trace}, nil
}

func (s *qaService) ResumeCheckpoint(ctx context.Context, threadID, checkpointID string) (*dto.AskResponse, error) {
	out, err := s.machine.Resume(ctx, threadID, checkpointID)
	if err != nil {
		return nil, err
	}
	return toAskResponse(out), nil
}

func (s *qaService) ClearCheckpoints(ctx context.Context, threadID string) (int64, error) {
	return s.checkpoints.Clear(ctx, threadID)
}

func (s *qaService) ResetSession(ctx context.Context, sessionID string) error {
	s.sessions.Reset(sessionID)
	removed := s.answerCache.ResetSession(sessionID)
	if s.redisAnswers != nil {
		if err := s.redisAnswers.ResetSession(ctx, sessionID); err != nil {
			s.logger.Warn("QA", "redis session reset failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
	s.logger.Info("QA", "session reset", map[string]interface{}{
		"session_id":     sessionID,
		"cached_answers": removed,
	})
	return nil
}

func (s *qaService) lookupCached(ctx context.Context, sessionID, question string) (string, bool) {
	if answer, ok := s.answerCache.Lookup(sessionID, question); ok {
		return answer, true
	}
	if s.redisAnswers == nil {
		return "", false
	}
	answer, ok, err := s.redisAnswers.Lookup(ctx, sessionID, question)
	if err != nil {
		// A broken cache is a miss, not a failure.
		cerr := &workflow.CacheError{Op: "lookup", Err: err}
		s.logger.Warn("QA", "cache lookup degraded", map[string]interface{}{"error": cerr.Error()})
		return "", false
	}
	return answer, ok
}

func (s *qaService) recordCached(ctx context.Context, sessionID, question, answer string) {
	s.answerCache.Record(sessionID, question, answer)
	if s.redisAnswers == nil {
		return
	}
	if err := s.redisAnswers.Record(ctx, sessionID, question, answer); err != nil {
		cerr := &workflow.CacheError{Op: "record", Err: err}
		s.logger.Warn("QA", "cache record degraded", map[string]interface{}{"error": cerr.Error()})
	}
}

func (s *qaService) availableCategories(ctx context.Context) []string {
	if s.documents == nil {
		return []string{constant.DefaultCategory}
	}
	categories, err := s.documents.ListCategories(ctx)
	if err != nil || len(categories) == 0 {
		if err != nil {
			s.logger.Warn("QA", "category catalog lookup failed", map[string]interface{}{"error": err.Error()})
		}
		return []string{constant.DefaultCategory}
	}
	return categories
}

func toAskResponse(out *workflow.Output) *dto.AskResponse {
	return &dto.AskResponse{
		Answer:          out.FinalAnswer,
		CitationSources: out.CitationSources,
		SearchStrategy:  out.SearchStrategy,
		RoutedCategory:  out.RoutedCategory,
		FallbackUsed:    out.FallbackTriggered,
		RetryCount:      out.RetryCount,
		WorkflowSteps:   out.WorkflowSteps,
		ErrorMessages:   out.ErrorMessages,
	}
}
