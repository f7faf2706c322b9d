package engine

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/aigoflow/providers/observability"
)

// IterationState describes the item a group iteration is processing.
type IterationState struct {
	GroupID string
	Item    any
	Index   int
	Total   int
}

// LogEntry is one message of the execution log.
type LogEntry struct {
	Time       time.Time
	NodeID     string
	Message    string
	Attributes []observability.Attribute
}

// ExecutionContext is the mutable state of a single run. A run drives it from
// one goroutine; the mutex only makes concurrent readers (status observers,
// HTTP handlers) safe.
type ExecutionContext struct {
	mu sync.RWMutex

	id              string
	states          map[string]NodeState
	executed        map[string]struct{}
	outputs         map[string]any
	accumulatedOnce map[string]struct{}
	triggerNodeID   string
	iterations      []IterationState
	logs            []LogEntry
	version         uint64

	observers []StatusObserver
	provider  observability.Provider
}

// NewExecutionContext creates an empty context. An empty id is replaced by a
// random UUID.
func NewExecutionContext(id string, observers ...StatusObserver) *ExecutionContext {
	if id == "" {
		id = uuid.NewString()
	}
	return &ExecutionContext{
		id:              id,
		states:          make(map[string]NodeState),
		executed:        make(map[string]struct{}),
		outputs:         make(map[string]any),
		accumulatedOnce: make(map[string]struct{}),
		observers:       observers,
	}
}

// ID returns the execution id.
func (ec *ExecutionContext) ID() string {
	return ec.id
}

// --- Node status ---

// MarkRunning moves nodeID to running.
func (ec *ExecutionContext) MarkRunning(nodeID string) error {
	return ec.transition(nodeID, StatusRunning, nil, nil)
}

// MarkSuccess moves nodeID to success with result.
func (ec *ExecutionContext) MarkSuccess(nodeID string, result any) error {
	return ec.transition(nodeID, StatusSuccess, result, nil)
}

// MarkError moves nodeID to error.
func (ec *ExecutionContext) MarkError(nodeID string, err error) error {
	return ec.transition(nodeID, StatusError, nil, err)
}

func (ec *ExecutionContext) transition(nodeID string, to Status, result any, nodeErr error) error {
	ec.mu.Lock()
	current, exists := ec.states[nodeID]
	from := StatusIdle
	if exists {
		from = current.Status
	}
	if !canTransition(from, to) {
		ec.mu.Unlock()
		err := fmt.Errorf("%w: node %q %s -> %s", ErrInvalidTransition, nodeID, from, to)
		ec.Log(nodeID, err.Error())
		return err
	}
	if from == StatusRunning && to == StatusRunning {
		ec.mu.Unlock()
		return nil
	}

	ec.version++
	state := NodeState{
		Status:    to,
		Result:    result,
		Err:       nodeErr,
		Version:   ec.version,
		UpdatedAt: time.Now(),
	}
	ec.states[nodeID] = state
	observers := ec.observers
	ec.mu.Unlock()

	if len(observers) > 0 {
		event := StatusEvent{
			ExecutionID: ec.id,
			NodeID:      nodeID,
			Status:      to,
			Result:      result,
			Version:     state.Version,
			Timestamp:   state.UpdatedAt,
		}
		if nodeErr != nil {
			event.Error = nodeErr.Error()
		}
		for _, observer := range observers {
			observer.OnNodeStatus(event)
		}
	}
	return nil
}

// State returns the recorded state of nodeID; unknown nodes are idle.
func (ec *ExecutionContext) State(nodeID string) NodeState {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	if state, ok := ec.states[nodeID]; ok {
		return state
	}
	return NodeState{Status: StatusIdle}
}

// Status returns the status of nodeID.
func (ec *ExecutionContext) Status(nodeID string) Status {
	return ec.State(nodeID).Status
}

// States returns a copy of every recorded node state.
func (ec *ExecutionContext) States() map[string]NodeState {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return maps.Clone(ec.states)
}

// Version returns the number of state changes so far. Observers compare it to
// detect changes without diffing the states.
func (ec *ExecutionContext) Version() uint64 {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.version
}

// --- Outputs ---

// StoreOutput records the output of nodeID, independent of its status.
func (ec *ExecutionContext) StoreOutput(nodeID string, output any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.outputs[nodeID] = output
}

// Output returns the stored output of nodeID.
func (ec *ExecutionContext) Output(nodeID string) (any, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	output, ok := ec.outputs[nodeID]
	return output, ok
}

// --- Cycle guard ---

// HasExecuted reports whether nodeID already ran in this context.
func (ec *ExecutionContext) HasExecuted(nodeID string) bool {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	_, ok := ec.executed[nodeID]
	return ok
}

// MarkExecuted adds nodeID to the executed set.
func (ec *ExecutionContext) MarkExecuted(nodeID string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.executed[nodeID] = struct{}{}
}

// Reset forgets status and executed membership for exactly nodeIDs, so a
// group iteration can run them again. Outputs are kept.
func (ec *ExecutionContext) Reset(nodeIDs []string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	for _, nodeID := range nodeIDs {
		delete(ec.states, nodeID)
		delete(ec.executed, nodeID)
	}
}

// --- Chaining sink bookkeeping ---

// HasAccumulatedOnce reports whether nodeID already applied a once-per-context
// accumulation.
func (ec *ExecutionContext) HasAccumulatedOnce(nodeID string) bool {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	_, ok := ec.accumulatedOnce[nodeID]
	return ok
}

// MarkAccumulatedOnce records a once-per-context accumulation for nodeID.
func (ec *ExecutionContext) MarkAccumulatedOnce(nodeID string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.accumulatedOnce[nodeID] = struct{}{}
}

// --- Trigger ---

// TriggerNodeID returns the explicit start node of the run, if any.
func (ec *ExecutionContext) TriggerNodeID() string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.triggerNodeID
}

// SetTriggerNodeID records the explicit start node.
func (ec *ExecutionContext) SetTriggerNodeID(nodeID string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.triggerNodeID = nodeID
}

// --- Iteration ---

// PushIteration makes state the current iteration. Nested groups stack.
func (ec *ExecutionContext) PushIteration(state IterationState) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.iterations = append(ec.iterations, state)
}

// PopIteration restores the enclosing iteration, if any.
func (ec *ExecutionContext) PopIteration() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if len(ec.iterations) > 0 {
		ec.iterations = ec.iterations[:len(ec.iterations)-1]
	}
}

// Iteration returns the innermost active iteration.
func (ec *ExecutionContext) Iteration() (IterationState, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	if len(ec.iterations) == 0 {
		return IterationState{}, false
	}
	return ec.iterations[len(ec.iterations)-1], true
}

// --- Log ---

// Log appends a message to the execution log and mirrors it to the
// observability provider at DEBUG.
func (ec *ExecutionContext) Log(nodeID, message string, attrs ...observability.Attribute) {
	ec.mu.Lock()
	ec.logs = append(ec.logs, LogEntry{
		Time:       time.Now(),
		NodeID:     nodeID,
		Message:    message,
		Attributes: attrs,
	})
	provider := ec.provider
	ec.mu.Unlock()

	if provider != nil {
		logAttrs := append([]observability.Attribute{
			observability.String(observability.AttrFlowExecutionID, ec.id),
			observability.String(observability.AttrFlowNodeID, nodeID),
		}, attrs...)
		provider.Debug(context.Background(), message, logAttrs...)
	}
}

// Logs returns a copy of the execution log in insertion order.
func (ec *ExecutionContext) Logs() []LogEntry {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return append([]LogEntry(nil), ec.logs...)
}

func (ec *ExecutionContext) setProvider(provider observability.Provider) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.provider = provider
}
