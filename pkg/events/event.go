package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "WORKFLOW_STEP").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// WorkflowActivityEvent is emitted for each node the workflow engine passes
// through, for external activity consumers.
type WorkflowActivityEvent struct {
	ThreadID   string
	Node       string
	Message    string
	Details    map[string]interface{}
	OccurredAt time.Time
}

func (e WorkflowActivityEvent) EventType() string {
	return "WORKFLOW_STEP"
}

func (e WorkflowActivityEvent) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"thread_id": e.ThreadID,
		"node":      e.Node,
		"message":   e.Message,
	}
	for k, v := range e.Details {
		payload[k] = v
	}
	return payload
}

func (e WorkflowActivityEvent) Timestamp() time.Time {
	return e.OccurredAt
}
