package store

import (
	"errors"
	"fmt"
)

// Category classifies engine-reported failures. The mutation manager
// pattern-matches on the category and rewraps into the project taxonomy;
// uncategorized errors pass through annotated with the failing statement.
type Category string

const (
	// CategoryDuplicate is a unique-index violation.
	CategoryDuplicate Category = "DUPLICATE"

	// CategoryNotFound is a missing record or class.
	CategoryNotFound Category = "NOT_FOUND"
)

// EngineError is a failure reported by the storage engine.
type EngineError struct {
	Category Category
	Message  string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error (%s): %s", e.Category, e.Message)
}

// CategoryOf extracts the engine category from an error chain.
// Returns "" for errors the engine did not categorize.
func CategoryOf(err error) Category {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return ""
}
