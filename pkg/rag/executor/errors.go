package executor

import "errors"

var (
	errEmptyResult = errors.New("retrieval returned no chunks")
	errNoStore     = errors.New("checkpoint store is not configured")
)
