package companion

import (
	"errors"
	"fmt"
)

// ValidationError rejects a turn before any provider call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Task names one background enrichment task.
type Task string

const (
	TaskHistory Task = "history"
	TaskFacts   Task = "facts"
	TaskSummary Task = "summary"
	TaskMetrics Task = "metrics"
)

// EnrichmentError records a failed enrichment task. It never reaches the
// caller of HandleTurn; it is logged and kept on the Enrichment handle.
type EnrichmentError struct {
	Task   Task
	UserID string
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment %s for user %s: %v", e.Task, e.UserID, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// errNothingToMerge marks a task that finished without anything to store.
var errNothingToMerge = errors.New("nothing to merge")
