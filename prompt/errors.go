package prompt

import "errors"

// Sentinel errors for prompt operations.
var (
	// ErrEmpty is returned when a template string is empty.
	ErrEmpty = errors.New("template is empty")

	// ErrParse is returned when a template fails to parse.
	ErrParse = errors.New("template parse error")

	// ErrExecute is returned when template execution fails.
	ErrExecute = errors.New("template execution error")

	// ErrVariable is returned when a required variable is missing.
	ErrVariable = errors.New("required variable missing")

	// ErrNotFound is returned when a library has no prompt or chain by that name.
	ErrNotFound = errors.New("not found in library")
)
