package dto

import (
	"time"

	"ai-docqa-be/pkg/checkpoint"
	"ai-docqa-be/pkg/workflow"
)

type AskRequest struct {
	UserID     string   `json:"user_id" validate:"required"`
	SessionID  string   `json:"session_id" validate:"required"`
	Question   string   `json:"question" validate:"required,min=5"`
	Categories []string `json:"categories,omitempty"`
}

type AskResponse struct {
	Answer          string                    `json:"answer"`
	CitationSources []workflow.CitationSource `json:"citation_sources"`
	SearchStrategy  workflow.SearchStrategy   `json:"search_strategy"`
	RoutedCategory  string                    `json:"routed_category"`
	FromCache       bool                      `json:"from_cache"`
	FallbackUsed    bool                      `json:"fallback_used"`
	RetryCount      int                       `json:"retry_count"`
	WorkflowSteps   []string                  `json:"workflow_steps"`
	ErrorMessages   []string                  `json:"error_messages,omitempty"`
}

type CheckpointResponse struct {
	CheckpointID       string         `json:"checkpoint_id"`
	ParentCheckpointID *string        `json:"parent_checkpoint_id,omitempty"`
	ChannelVersions    map[string]int `json:"channel_versions"`
	CreatedAt          time.Time      `json:"created_at"`
}

type ReplayResponse struct {
	ThreadID string                 `json:"thread_id"`
	Trace    []checkpoint.TraceStep `json:"trace"`
}

type ResumeRequest struct {
	CheckpointID string `json:"checkpoint_id,omitempty"`
}

type ClearCheckpointsResponse struct {
	Deleted int64 `json:"deleted"`
}
