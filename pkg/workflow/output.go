package workflow

// Output is the structured result returned to the surrounding service layer.
type Output struct {
	Node              Node             `json:"node"`
	FinalAnswer       string           `json:"final_answer"`
	CitationSources   []CitationSource `json:"citation_sources"`
	WorkflowSteps     []string         `json:"workflow_steps"`
	ErrorMessages     []string         `json:"error_messages"`
	RoutedCategory    string           `json:"routed_category,omitempty"`
	SearchStrategy    SearchStrategy   `json:"search_strategy,omitempty"`
	FallbackTriggered bool             `json:"fallback_triggered"`
	RetryCount        int              `json:"retry_count"`
	FromCache         bool             `json:"from_cache"`
}

// OutputFromState snapshots a terminal state into an Output.
func OutputFromState(s *State) *Output {
	return &Output{
		Node:              s.Node,
		FinalAnswer:       s.FinalAnswer,
		CitationSources:   s.CitationSources,
		WorkflowSteps:     s.WorkflowSteps,
		ErrorMessages:     s.ErrorMessages,
		RoutedCategory:    s.RoutedCategory,
		SearchStrategy:    s.SearchStrategy,
		FallbackTriggered: s.FallbackTriggered,
		RetryCount:        s.RetryCount,
		FromCache:         false,
	}
}
