package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks errors caused by the flow definition itself.
	ErrConfiguration = errors.New("configuration error")

	// ErrExecution marks errors returned by a node's Execute.
	ErrExecution = errors.New("execution error")

	// ErrUnknownNodeType is returned when no constructor is registered for a type.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrStartNodeNotFound is returned when an explicit start or source node is missing.
	ErrStartNodeNotFound = errors.New("node not found")

	// ErrNotSequence is returned when an iteration source did not produce a list.
	ErrNotSequence = errors.New("iteration source is not a sequence")

	// ErrInvalidTransition is returned for a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ConfigurationError reports a problem with the definition of NodeID.
// It matches both ErrConfiguration and Err with errors.Is.
type ConfigurationError struct {
	NodeID string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	message := "configuration error"
	if e.NodeID != "" {
		message += fmt.Sprintf(" for node %q", e.NodeID)
	}
	if e.Reason != "" {
		message += ": " + e.Reason
	}
	if e.Err != nil {
		message += ": " + e.Err.Error()
	}
	return message
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

// ExecutionError wraps the error a node returned from Execute.
// It matches both ErrExecution and Err with errors.Is.
type ExecutionError struct {
	NodeID   string
	NodeType string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("node %q (%s) failed: %v", e.NodeID, e.NodeType, e.Err)
}

func (e *ExecutionError) Unwrap() []error {
	return []error{ErrExecution, e.Err}
}
