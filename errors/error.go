package errors

import (
	"fmt"
)

// ConfigurationError occurs when a group is configured incorrectly, such as setting its key and value pipelines more than once
type ConfigurationError struct {
	Step   string // Step is a description of the misconfigured step
	Reason string // Reason describes what was attempted
}

// Error returns a textual representation of this ConfigurationError
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Step)
}

// FinalizedError occurs when a group map is modified after it has been finalized
type FinalizedError struct{ ID string }

// Error returns a textual representation of this FinalizedError
func (e FinalizedError) Error() string {
	return fmt.Sprintf("Group map %s has already been finalized", e.ID)
}

// MergedError occurs when a group map is used after it has been merged into another map
type MergedError struct{ ID string }

// Error returns a textual representation of this MergedError
func (e MergedError) Error() string {
	return fmt.Sprintf("Group map %s has already been merged into another group map", e.ID)
}

// InvalidBulkError occurs when an element is incorporated with a multiplicity less than one
type InvalidBulkError struct{ Bulk int64 }

// Error returns a textual representation of this InvalidBulkError
func (e InvalidBulkError) Error() string {
	return fmt.Sprintf("Bulk must be at least 1, was %d", e.Bulk)
}

// IncompatibleStateError occurs when a Combiner is applied to states of an unexpected type
type IncompatibleStateError struct {
	Combiner string
	Left     interface{}
	Right    interface{}
}

// Error returns a textual representation of this IncompatibleStateError
func (e IncompatibleStateError) Error() string {
	return fmt.Sprintf("Combiner %s cannot combine %T with %T", e.Combiner, e.Left, e.Right)
}

// IncompatibleMapError occurs when two group maps produced by differently-classified groups are merged
type IncompatibleMapError struct {
	Left  string
	Right string
}

// Error returns a textual representation of this IncompatibleMapError
func (e IncompatibleMapError) Error() string {
	return fmt.Sprintf("Cannot merge a group map combined with %s into one combined with %s", e.Right, e.Left)
}

// UnknownCombinerError occurs when a Combiner name is not recognized
type UnknownCombinerError struct{ Name string }

// Error returns a textual representation of this UnknownCombinerError
func (e UnknownCombinerError) Error() string {
	return fmt.Sprintf("Unknown combiner %q", e.Name)
}

// MissingKeyError occurs when a key cannot be found in a group map
type MissingKeyError struct{}

// Error returns a textual representation of this MissingKeyError
func (e MissingKeyError) Error() string {
	return "Key does not exist in group map"
}

// NoMoreElementsError occurs when there are no more elements in an element source
type NoMoreElementsError struct{}

// Error returns a textual representation of this NoMoreElementsError
func (e NoMoreElementsError) Error() string {
	return "No more elements"
}
