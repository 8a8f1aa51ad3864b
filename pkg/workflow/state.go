package workflow

import (
	"fmt"
	"strings"
)

// Node identifies a state of the question-answering workflow.
type Node string

const (
	NodeValidate         Node = "VALIDATE"
	NodeRouteAndRetrieve Node = "ROUTE_AND_RETRIEVE"
	NodeEvaluateQuality  Node = "EVALUATE_QUALITY"
	NodeHybridSearch     Node = "HYBRID_SEARCH"
	NodeDedup            Node = "DEDUP"
	NodeGenerate         Node = "GENERATE"
	NodeFormat           Node = "FORMAT"
	NodeDone             Node = "DONE"
	NodeError            Node = "ERROR"
)

// SearchStrategy records which retrieval path answered the question.
type SearchStrategy string

const (
	StrategyFastPath SearchStrategy = "FAST_PATH"
	StrategyHybrid   SearchStrategy = "HYBRID"
	StrategyFallback SearchStrategy = "FALLBACK"
)

// CategoryAll is the widened routing target used after a fallback.
const CategoryAll = "all"

// Turn is a single prior exchange in the conversation history.
type Turn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// Chunk is a retrieved passage. Source plus Position form its identity;
// Score is a similarity in [0,1] (higher is more relevant).
type Chunk struct {
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// Identity returns the stable identity key used for deduplication.
func (c Chunk) Identity() string {
	return fmt.Sprintf("%s#%d", c.Source, c.Position)
}

// CitationSource is one formatted citation, produced only by the FORMAT node.
type CitationSource struct {
	Index    int     `json:"index"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
	Preview  string  `json:"preview"`
}

// State is the single mutable record threaded through every workflow node.
// Every field carries an explicit default at construction; slices are always
// non-nil so "empty" is never confused with "absent".
type State struct {
	UserID              string           `json:"user_id"`
	Question            string           `json:"question"`
	ConversationHistory []Turn           `json:"conversation_history"`
	AvailableCategories []string         `json:"available_categories"`
	RoutedCategory      string           `json:"routed_category"`
	ContextChunks       []Chunk          `json:"context_chunks"`
	SearchStrategy      SearchStrategy   `json:"search_strategy"`
	RetryCount          int              `json:"retry_count"`
	FallbackTriggered   bool             `json:"fallback_triggered"`
	WorkflowSteps       []string         `json:"workflow_steps"`
	ErrorMessages       []string         `json:"error_messages"`
	FinalAnswer         string           `json:"final_answer"`
	CitationSources     []CitationSource `json:"citation_sources"`
	Node                Node             `json:"node"`
}

// NewState builds a workflow state with explicit defaults for every field.
func NewState(userID, question string, categories []string, history []Turn) *State {
	if categories == nil {
		categories = []string{}
	}
	if history == nil {
		history = []Turn{}
	}
	return &State{
		UserID:              userID,
		Question:            question,
		ConversationHistory: history,
		AvailableCategories: categories,
		RoutedCategory:      "",
		ContextChunks:       []Chunk{},
		SearchStrategy:      "",
		RetryCount:          0,
		FallbackTriggered:   false,
		WorkflowSteps:       []string{},
		ErrorMessages:       []string{},
		FinalAnswer:         "",
		CitationSources:     []CitationSource{},
		Node:                NodeValidate,
	}
}

// AddStep appends to the ordered step log.
func (s *State) AddStep(step string) {
	s.WorkflowSteps = append(s.WorkflowSteps, step)
}

// AddError appends to the ordered error log.
func (s *State) AddError(msg string) {
	s.ErrorMessages = append(s.ErrorMessages, msg)
}

// IsTerminal reports whether the state machine has finished.
func (s *State) IsTerminal() bool {
	return s.Node == NodeDone || s.Node == NodeError
}

// HistorySummary renders the last maxTurns exchanges for routing and
// generation context.
func (s *State) HistorySummary(maxTurns int) string {
	if len(s.ConversationHistory) == 0 || maxTurns <= 0 {
		return ""
	}
	turns := s.ConversationHistory
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Dedup removes duplicate chunk identities keeping the highest-scored
// instance per identity. Each identity keeps the position of its first
// occurrence, so a list already sorted by score stays sorted. Applying Dedup
// to an already-deduplicated list returns an equal list.
func Dedup(chunks []Chunk) []Chunk {
	best := make(map[string]Chunk, len(chunks))
	for _, c := range chunks {
		id := c.Identity()
		if prev, ok := best[id]; !ok || c.Score > prev.Score {
			best[id] = c
		}
	}
	out := make([]Chunk, 0, len(best))
	seen := make(map[string]bool, len(best))
	for _, c := range chunks {
		id := c.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, best[id])
	}
	return out
}
