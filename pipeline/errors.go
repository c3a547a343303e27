package pipeline

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("pipeline configuration error")

// ConfigurationError reports a pipeline that cannot be built or run as configured.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "pipeline configuration: " + e.Reason
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// StageError reports the failure of a single stage. Index is the stage's
// position within its pipeline.
type StageError struct {
	Index int
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("stage %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("stage %d: %v", e.Index, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// TypeError reports a stage input whose dynamic type does not match what the
// stage accepts.
type TypeError struct {
	Stage string
	Want  string
	Got   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: expected input of type %s, got %s", e.Stage, e.Want, e.Got)
}

// KeyError reports a key missing from Values.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("missing key %q", e.Key)
}

// BranchError reports the failure of one branch of a Parallel stage.
type BranchError struct {
	Key string
	Err error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("parallel branch %q: %v", e.Key, e.Err)
}

func (e *BranchError) Unwrap() error {
	return e.Err
}
