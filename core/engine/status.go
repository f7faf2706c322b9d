package engine

import "time"

// Status is the lifecycle state of a node within one run.
type Status string

const (
	// StatusIdle is the state of a node that has not started (or was reset).
	StatusIdle Status = "idle"

	// StatusRunning indicates the node's Execute is in progress.
	StatusRunning Status = "running"

	// StatusSuccess indicates Execute returned without error.
	StatusSuccess Status = "success"

	// StatusError indicates Execute (or instantiation) failed.
	StatusError Status = "error"
)

// canTransition encodes the node lifecycle. success->success refreshes the
// result of a reentrant node; idle->error covers nodes that fail to
// instantiate.
func canTransition(from, to Status) bool {
	switch from {
	case StatusIdle:
		return to == StatusRunning || to == StatusError
	case StatusRunning:
		return to == StatusRunning || to == StatusSuccess || to == StatusError
	case StatusSuccess:
		return to == StatusSuccess
	default:
		return false
	}
}

// NodeState is the recorded state of one node.
type NodeState struct {
	Status    Status
	Result    any
	Err       error
	Version   uint64
	UpdatedAt time.Time
}

// StatusEvent is pushed to status observers on every state change.
type StatusEvent struct {
	ExecutionID string    `json:"executionId"`
	NodeID      string    `json:"nodeId"`
	Status      Status    `json:"status"`
	Result      any       `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	Version     uint64    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
}

// StatusObserver receives node status changes synchronously, in the order
// they happen.
type StatusObserver interface {
	OnNodeStatus(event StatusEvent)
}

// StatusObserverFunc adapts a function to StatusObserver.
type StatusObserverFunc func(event StatusEvent)

// OnNodeStatus calls the underlying function.
func (fn StatusObserverFunc) OnNodeStatus(event StatusEvent) {
	fn(event)
}
