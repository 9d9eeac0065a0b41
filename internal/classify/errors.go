// Package classify produces a single relevance verdict per candidate tune
// by combining N independent judgment-service runs with a majority vote.
package classify

import "fmt"

// Error represents a classification failure: the service refused to
// answer, returned an unparseable payload, or the payload failed schema
// validation. It aborts the whole item attempt; the orchestrator records
// the hymn as failed and a later run retries the entire item.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("classification error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("classification error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
