// Package executor hosts the workflow state machine that drives a question
// from validation through retrieval, fusion, generation and formatting. The
// machine owns the node graph; every external effect goes through the
// interfaces it is constructed with.
package executor

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ai-docqa-be/pkg/activity"
	"ai-docqa-be/pkg/checkpoint"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/rag/fusion"
	"ai-docqa-be/pkg/rag/generate"
	"ai-docqa-be/pkg/rag/quality"
	"ai-docqa-be/pkg/rag/rerank"
	"ai-docqa-be/pkg/rag/retry"
	"ai-docqa-be/pkg/rag/router"
	"ai-docqa-be/pkg/search"
	"ai-docqa-be/pkg/workflow"
)

const (
	// MinQuestionLength is the validation gate on question length.
	MinQuestionLength = 5

	apologyAnswer = "Sorry, I could not put together an answer this time. Please try asking again."
	errorAnswer   = "Sorry, something went wrong while answering your question."

	previewLength = 160
)

// Config holds the engine tunables. Everything here comes from configuration,
// not hardcoded constants.
type Config struct {
	TopK            int
	MaxRetries      int
	CallTimeout     time.Duration
	MaxHistoryTurns int
	RerankEnabled   bool
	Fusion          fusion.Config
	Quality         quality.Config
}

// DefaultConfig returns the standard engine tuning.
func DefaultConfig() Config {
	return Config{
		TopK:            10,
		MaxRetries:      2,
		CallTimeout:     30 * time.Second,
		MaxHistoryTurns: 4,
		RerankEnabled:   true,
		Fusion:          fusion.DefaultConfig(),
		Quality:         quality.DefaultConfig(),
	}
}

// nodeFunc advances the state by one transition and names the next node.
type nodeFunc func(ctx context.Context, env *runEnv, st *workflow.State) workflow.Node

// runEnv carries per-request scratch data that is not part of the durable
// workflow state (the query vector so fallback retries skip a second
// embedding call, and the draft answer before FORMAT publishes it).
type runEnv struct {
	threadID    string
	queryVector []float32
	draftAnswer string
	rerankStats *rerank.Stats
}

// Machine is the workflow state machine.
type Machine struct {
	categoryRouter router.CategoryRouter
	embedder       embedding.EmbeddingProvider
	vectors        search.VectorStore
	keywords       search.KeywordSearch
	generator      generate.AnswerGenerator

	fuser       *fusion.Fuser
	reranker    *rerank.Reranker
	evaluator   *quality.Evaluator
	retryPolicy *retry.Controller

	checkpoints *checkpoint.Store
	sink        activity.Sink
	config      Config
	logger      *log.Logger

	handlers map[workflow.Node]nodeFunc
}

// NewMachine wires the state machine. scorer may be nil (or RerankEnabled
// false) to skip reranking; sink may be nil; checkpoints may be nil to run
// without durable snapshots.
func NewMachine(
	categoryRouter router.CategoryRouter,
	embedder embedding.EmbeddingProvider,
	vectors search.VectorStore,
	keywords search.KeywordSearch,
	generator generate.AnswerGenerator,
	scorer rerank.Scorer,
	checkpoints *checkpoint.Store,
	sink activity.Sink,
	config Config,
	logger *log.Logger,
) *Machine {
	if sink == nil {
		sink = activity.NopSink{}
	}
	m := &Machine{
		categoryRouter: categoryRouter,
		embedder:       embedder,
		vectors:        vectors,
		keywords:       keywords,
		generator:      generator,
		fuser:          fusion.NewFuser(config.Fusion, logger),
		evaluator:      quality.NewEvaluator(config.Quality, logger),
		retryPolicy:    retry.NewController(config.MaxRetries, logger),
		checkpoints:    checkpoints,
		sink:           sink,
		config:         config,
		logger:         logger,
	}
	if scorer != nil && config.RerankEnabled {
		m.reranker = rerank.NewReranker(scorer, logger)
	}
	m.handlers = map[workflow.Node]nodeFunc{
		workflow.NodeValidate:         m.validate,
		workflow.NodeRouteAndRetrieve: m.routeAndRetrieve,
		workflow.NodeEvaluateQuality:  m.evaluateQuality,
		workflow.NodeHybridSearch:     m.hybridSearch,
		workflow.NodeDedup:            m.dedup,
		workflow.NodeGenerate:         m.generate,
		workflow.NodeFormat:           m.format,
	}
	return m
}

// Run advances the state machine until a terminal node and returns the
// structured output. No failure escapes as an error: terminal states always
// produce a well-formed output.
func (m *Machine) Run(ctx context.Context, threadID string, st *workflow.State) *workflow.Output {
	env := &runEnv{threadID: threadID}

	for !st.IsTerminal() {
		if ctx.Err() != nil {
			// Cancelled: abandon the path, skip checkpoint writes.
			st.AddError("request cancelled: " + ctx.Err().Error())
			st.Node = workflow.NodeError
			m.shapeErrorOutput(st)
			return workflow.OutputFromState(st)
		}

		handler, ok := m.handlers[st.Node]
		if !ok {
			st.AddError("no handler for node " + string(st.Node))
			st.Node = workflow.NodeError
			break
		}

		current := st.Node
		next := handler(ctx, env, st)
		st.Node = next
		m.emit(ctx, env, st, current)

		// Durable save points: after routing/retrieval and after dedup.
		if current == workflow.NodeRouteAndRetrieve && next == workflow.NodeEvaluateQuality {
			m.saveCheckpoint(ctx, env.threadID, st)
		}
		if current == workflow.NodeDedup && !st.IsTerminal() {
			m.saveCheckpoint(ctx, env.threadID, st)
		}
	}

	if st.Node == workflow.NodeError {
		m.shapeErrorOutput(st)
	}
	m.saveCheckpoint(ctx, env.threadID, st)
	return workflow.OutputFromState(st)
}

// Resume loads a saved state and continues the workflow from the node it was
// about to enter. External calls completed before the checkpoint are not
// repeated.
func (m *Machine) Resume(ctx context.Context, threadID, checkpointID string) (*workflow.Output, error) {
	if m.checkpoints == nil {
		return nil, &workflow.PersistenceError{Op: "resume", Err: errNoStore}
	}
	st, err := m.checkpoints.Get(ctx, threadID, checkpointID)
	if err != nil {
		return nil, err
	}
	if st.IsTerminal() {
		return workflow.OutputFromState(st), nil
	}
	return m.Run(ctx, threadID, st), nil
}

// --- node handlers ---

func (m *Machine) validate(_ context.Context, _ *runEnv, st *workflow.State) workflow.Node {
	st.AddStep("validate")

	var verr *workflow.ValidationError
	question := strings.TrimSpace(st.Question)
	switch {
	case st.UserID == "":
		verr = &workflow.ValidationError{Reason: "user_id is empty"}
	case len([]rune(question)) < MinQuestionLength:
		verr = &workflow.ValidationError{Reason: "question is too short"}
	case len(st.AvailableCategories) == 0:
		verr = &workflow.ValidationError{Reason: "no categories available"}
	}
	if verr != nil {
		st.AddError(verr.Error())
		return workflow.NodeError
	}
	return workflow.NodeRouteAndRetrieve
}

func (m *Machine) routeAndRetrieve(ctx context.Context, env *runEnv, st *workflow.State) workflow.Node {
	st.AddStep("route_and_retrieve")

	// A fallback re-entry keeps the widened category; routing only runs on
	// the first pass.
	if st.RoutedCategory == "" {
		callCtx, cancel := m.callContext(ctx)
		category, err := m.categoryRouter.Route(callCtx, st.Question, st.AvailableCategories, st.HistorySummary(m.config.MaxHistoryTurns))
		cancel()
		if err != nil {
			return m.handleRetrievalFailure(st, "category_router", err)
		}
		st.RoutedCategory = validCategory(category, st.AvailableCategories)
	}

	if env.queryVector == nil {
		callCtx, cancel := m.callContext(ctx)
		vector, err := m.embedder.Generate(callCtx, st.Question)
		cancel()
		if err != nil {
			return m.handleRetrievalFailure(st, "embedding", err)
		}
		env.queryVector = vector
	}

	callCtx, cancel := m.callContext(ctx)
	chunks, err := m.vectors.Search(callCtx, st.RoutedCategory, env.queryVector, m.config.TopK)
	cancel()
	if err != nil {
		return m.handleRetrievalFailure(st, "vector_search", err)
	}
	if len(chunks) == 0 {
		return m.handleRetrievalFailure(st, "vector_search", errEmptyResult)
	}

	st.ContextChunks = chunks
	return workflow.NodeEvaluateQuality
}

func (m *Machine) evaluateQuality(_ context.Context, _ *runEnv, st *workflow.State) workflow.Node {
	st.AddStep("evaluate_quality")

	decision := m.evaluator.Evaluate(st.ContextChunks)
	if decision.FastPath {
		if st.FallbackTriggered {
			st.SearchStrategy = workflow.StrategyFallback
		} else {
			st.SearchStrategy = workflow.StrategyFastPath
		}
		return workflow.NodeDedup
	}
	st.SearchStrategy = workflow.StrategyHybrid
	return workflow.NodeHybridSearch
}

func (m *Machine) hybridSearch(ctx context.Context, env *runEnv, st *workflow.State) workflow.Node {
	st.AddStep("hybrid_search")

	semantic := st.ContextChunks
	var keyword []workflow.Chunk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		callCtx, cancel := m.callContext(gctx)
		defer cancel()
		results, err := m.keywords.Search(callCtx, st.RoutedCategory, st.Question, m.config.TopK)
		if err != nil {
			return err
		}
		keyword = results
		return nil
	})
	// The semantic list is normally already held from ROUTE_AND_RETRIEVE;
	// only a resumed request without chunks re-issues the vector search,
	// joining with the keyword branch before fusion.
	if len(semantic) == 0 {
		g.Go(func() error {
			callCtx, cancel := m.callContext(gctx)
			defer cancel()
			if env.queryVector == nil {
				vector, err := m.embedder.Generate(callCtx, st.Question)
				if err != nil {
					return err
				}
				env.queryVector = vector
			}
			results, err := m.vectors.Search(callCtx, st.RoutedCategory, env.queryVector, m.config.TopK)
			if err != nil {
				return err
			}
			semantic = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return m.handleRetrievalFailure(st, "hybrid_search", err)
	}

	fused := m.fuser.Fuse(semantic, keyword)

	if m.reranker != nil {
		reranked, stats := m.reranker.Rerank(ctx, st.Question, fused)
		fused = reranked
		env.rerankStats = &stats
	}

	st.ContextChunks = fused
	return workflow.NodeDedup
}

func (m *Machine) dedup(_ context.Context, _ *runEnv, st *workflow.State) workflow.Node {
	st.AddStep("dedup")
	st.ContextChunks = workflow.Dedup(st.ContextChunks)
	return workflow.NodeGenerate
}

func (m *Machine) generate(ctx context.Context, env *runEnv, st *workflow.State) workflow.Node {
	st.AddStep("generate")

	callCtx, cancel := m.callContext(ctx)
	answer, err := m.generator.Generate(callCtx, st.Question, st.ContextChunks, st.HistorySummary(m.config.MaxHistoryTurns))
	cancel()
	if err != nil {
		terr := &workflow.ToolExecutionError{Tool: "answer_generator", Err: err}
		st.AddError(terr.Error())
		if m.retryPolicy.ShouldRetry(st, terr) {
			m.retryPolicy.MarkRetry(st)
			return workflow.NodeGenerate
		}
		// Degrade to the apology answer instead of failing the request.
		env.draftAnswer = apologyAnswer
		return workflow.NodeFormat
	}
	env.draftAnswer = answer
	return workflow.NodeFormat
}

func (m *Machine) format(_ context.Context, env *runEnv, st *workflow.State) workflow.Node {
	st.AddStep("format")

	if env.draftAnswer == "" {
		env.draftAnswer = apologyAnswer
	}
	st.FinalAnswer = env.draftAnswer

	citations := make([]workflow.CitationSource, 0, len(st.ContextChunks))
	for i, c := range st.ContextChunks {
		citations = append(citations, workflow.CitationSource{
			Index:    i + 1,
			Source:   c.Source,
			Distance: clamp01(1.0 - c.Score),
			Preview:  previewText(c.Content, previewLength),
		})
	}
	st.CitationSources = citations
	return workflow.NodeDone
}

// --- helpers ---

// handleRetrievalFailure applies the fallback policy: log the tool error,
// widen to all categories and retry while the budget lasts, otherwise
// escalate to the terminal error state.
func (m *Machine) handleRetrievalFailure(st *workflow.State, tool string, err error) workflow.Node {
	terr := &workflow.ToolExecutionError{Tool: tool, Err: err}
	st.AddError(terr.Error())
	if m.retryPolicy.ShouldRetry(st, terr) {
		m.retryPolicy.MarkFallback(st)
		return workflow.NodeRouteAndRetrieve
	}
	return workflow.NodeError
}

// shapeErrorOutput guarantees the terminal ERROR state keeps the output
// contract: a user-safe answer, no chunks, a non-empty error log.
func (m *Machine) shapeErrorOutput(st *workflow.State) {
	st.FinalAnswer = errorAnswer
	st.ContextChunks = []workflow.Chunk{}
	st.CitationSources = []workflow.CitationSource{}
	if len(st.ErrorMessages) == 0 {
		st.AddError("workflow ended in error state")
	}
}

func (m *Machine) saveCheckpoint(ctx context.Context, threadID string, st *workflow.State) {
	if m.checkpoints == nil || threadID == "" || ctx.Err() != nil {
		return
	}
	if _, err := m.checkpoints.Save(ctx, threadID, st); err != nil {
		// Persistence failures never abort the request.
		st.AddError(err.Error())
		if m.logger != nil {
			m.logger.Printf("[MACHINE] checkpoint save failed: %v", err)
		}
	}
}

func (m *Machine) emit(ctx context.Context, env *runEnv, st *workflow.State, node workflow.Node) {
	event := activity.Event{
		ThreadID:  env.threadID,
		Node:      string(node),
		Message:   "completed",
		Timestamp: time.Now(),
	}
	if node == workflow.NodeHybridSearch && env.rerankStats != nil {
		event.Details = map[string]interface{}{
			"rerank_avg": env.rerankStats.Average,
			"rerank_top": env.rerankStats.TopScore,
		}
	}
	if st.Node == workflow.NodeError {
		event.Message = "failed"
	}
	if err := m.sink.Publish(ctx, event); err != nil && m.logger != nil {
		m.logger.Printf("[MACHINE] activity publish failed: %v", err)
	}
}

func (m *Machine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.CallTimeout > 0 {
		return context.WithTimeout(ctx, m.config.CallTimeout)
	}
	return ctx, func() {}
}

// validCategory keeps routing honest: the routed category must be a member
// of the available set or the "all" sentinel.
func validCategory(category string, available []string) string {
	if category == workflow.CategoryAll {
		return category
	}
	for _, c := range available {
		if c == category {
			return category
		}
	}
	return workflow.CategoryAll
}

func previewText(s string, maxLen int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen]) + "..."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
