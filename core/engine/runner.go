package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leofalp/aigoflow/core/flow"
	"github.com/leofalp/aigoflow/providers/observability"
)

// Runner executes flow definitions with a shared factory and configuration.
// It holds no per-run state, so concurrent Run calls are safe.
type Runner struct {
	factory *Factory
	config  *runnerConfig
}

// NewRunner creates a Runner. A nil factory is replaced by NewFactory().
func NewRunner(factory *Factory, opts ...Option) *Runner {
	if factory == nil {
		factory = NewFactory()
	}
	config := &runnerConfig{errorStrategy: ErrorStrategyFailFast}
	for _, opt := range opts {
		opt(config)
	}
	return &Runner{factory: factory, config: config}
}

// Factory returns the runner's node factory.
func (runner *Runner) Factory() *Factory {
	return runner.factory
}

// Result is the outcome of a run.
type Result struct {
	ExecutionID string
	Context     *ExecutionContext
	Outputs     []Output
	Duration    time.Duration

	// Err joins the failures of the independent start branches, or is nil
	// when every branch completed.
	Err error
}

// Run executes definition. It returns an error, and runs nothing, when the
// definition cannot be run at all: a node type is not registered or the
// explicit start node does not exist. Failures inside branches are recorded
// on the nodes and reported through Result.Err.
func (runner *Runner) Run(ctx context.Context, definition *flow.Definition, opts ...RunOption) (*Result, error) {
	if definition == nil {
		return nil, &ConfigurationError{Reason: "flow definition is nil"}
	}

	runCfg := &runConfig{}
	for _, opt := range opts {
		opt(runCfg)
	}

	for _, node := range definition.Nodes {
		if !runner.factory.Has(node.Type) {
			return nil, &ConfigurationError{
				NodeID: node.ID,
				Reason: fmt.Sprintf("type %q", node.Type),
				Err:    ErrUnknownNodeType,
			}
		}
	}

	graph := flow.BuildGraph(definition.Nodes, definition.Edges)

	var startIDs []string
	if runCfg.startNodeID != "" {
		if graph.Node(runCfg.startNodeID) == nil {
			return nil, &ConfigurationError{
				NodeID: runCfg.startNodeID,
				Reason: "start node",
				Err:    ErrStartNodeNotFound,
			}
		}
		startIDs = []string{runCfg.startNodeID}
	} else {
		for _, rootID := range graph.Roots {
			if graph.Node(rootID).ParentGroupID == "" {
				startIDs = append(startIDs, rootID)
			}
		}
	}

	observers := append(append([]StatusObserver(nil), runner.config.statusObservers...), runCfg.observers...)
	execCtx := NewExecutionContext(runCfg.executionID, observers...)
	if runCfg.startNodeID != "" {
		execCtx.SetTriggerNodeID(runCfg.startNodeID)
	}

	run := &Run{
		definition: definition,
		graph:      graph,
		factory:    runner.factory,
		execCtx:    execCtx,
		strategy:   runner.config.errorStrategy,
		instances:  make(map[string]Node),
	}

	provider := runner.config.provider
	if provider == nil {
		provider = observability.ObserverFromContext(ctx)
	}
	run.provider = provider
	execCtx.setProvider(provider)

	start := time.Now()
	ctx, span := run.observeRunStart(ctx, startIDs)

	if len(startIDs) == 0 {
		execCtx.Log("", "no start nodes: every node has an incoming edge")
	}

	var branchErrors []error
	for _, startID := range startIDs {
		if ctx.Err() != nil {
			branchErrors = append(branchErrors, fmt.Errorf("run canceled before %q: %w", startID, ctx.Err()))
			break
		}
		if execCtx.HasExecuted(startID) {
			continue
		}

		var input any = map[string]any{}
		if provided, ok := runCfg.inputs[startID]; ok {
			input = provided
		}

		if err := run.Process(ctx, startID, input); err != nil {
			execCtx.Log(startID, "branch failed", observability.Error(err))
			branchErrors = append(branchErrors, err)
		}
	}

	result := &Result{
		ExecutionID: execCtx.ID(),
		Context:     execCtx,
		Outputs:     CollectOutputs(definition, execCtx),
		Duration:    time.Since(start),
		Err:         errors.Join(branchErrors...),
	}
	run.observeRunEnd(ctx, span, result)
	return result, nil
}

// Run is a single execution of a flow. Nodes reach it through their Scope to
// inspect the definition or, like groups, to drive a sub-graph.
type Run struct {
	definition *flow.Definition
	graph      *flow.Graph
	factory    *Factory
	execCtx    *ExecutionContext
	strategy   ErrorStrategy
	provider   observability.Provider

	mu        sync.Mutex
	instances map[string]Node
}

// Context returns the execution context of the run.
func (run *Run) Context() *ExecutionContext {
	return run.execCtx
}

// Definition returns the flow definition being run.
func (run *Run) Definition() *flow.Definition {
	return run.definition
}

// Graph returns the adjacency graph of the definition.
func (run *Run) Graph() *flow.Graph {
	return run.graph
}

// Factory returns the factory the run instantiates nodes with.
func (run *Run) Factory() *Factory {
	return run.factory
}

// Instance returns the node instance for nodeID, creating it on first use.
// Instances live for the whole run, so state such as a merger buffer persists
// across visits.
func (run *Run) Instance(nodeID string) (Node, error) {
	run.mu.Lock()
	defer run.mu.Unlock()

	if node, ok := run.instances[nodeID]; ok {
		return node, nil
	}
	definition, ok := run.definition.Node(nodeID)
	if !ok {
		return nil, &ConfigurationError{NodeID: nodeID, Err: ErrStartNodeNotFound}
	}
	node, err := run.factory.New(Scope{Node: definition, Run: run})
	if err != nil {
		return nil, err
	}
	run.instances[nodeID] = node
	return node, nil
}

// dropInstances discards cached instances so the next visit builds fresh ones.
func (run *Run) dropInstances(nodeIDs []string) {
	run.mu.Lock()
	defer run.mu.Unlock()
	for _, nodeID := range nodeIDs {
		delete(run.instances, nodeID)
	}
}

func (run *Run) nodeType(nodeID string) string {
	if node := run.graph.Node(nodeID); node != nil {
		return node.Type
	}
	return ""
}
