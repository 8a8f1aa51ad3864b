package workflow

import "fmt"

// ValidationError marks malformed input. It is terminal and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ToolExecutionError wraps a failure of one of the external calls (routing,
// embedding, retrieval, generation, rerank scoring). Recoverable up to the
// configured retry bound.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a checkpoint read/write failure. It is logged into
// the state's error log but never aborts the request.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkpoint %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CacheError wraps an answer-cache failure. Callers treat it as a cache miss
// and proceed with the pipeline.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s failed: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
