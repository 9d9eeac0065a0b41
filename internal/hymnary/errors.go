package hymnary

import "fmt"

// ParseError represents a failure to extract structured data from a page.
// Parse errors are never retried: page content is deterministic once
// fetched, so the orchestrator records them as item-level failures.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
