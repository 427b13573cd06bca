package models

import (
	"fmt"
	"strings"
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}

	return v
}

// ReorderError reports the ids whose sort key could not be written.
// Updates that succeeded before the failure stay applied.
type ReorderError struct {
	Failed []int64
	Err    error
}

func (e *ReorderError) Error() string {
	return fmt.Sprintf("reorder failed for %d item(s) %v: %v", len(e.Failed), e.Failed, e.Err)
}

func (e *ReorderError) Unwrap() error {
	return e.Err
}
