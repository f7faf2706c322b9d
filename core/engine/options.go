package engine

import "github.com/leofalp/aigoflow/providers/observability"

// ErrorStrategy decides what happens to the remaining siblings of a branch
// when one of them fails. Top-level roots are always independent.
type ErrorStrategy string

const (
	// ErrorStrategyFailFast stops the branch at the first failure: the failing
	// node's later siblings do not run. This is the default strategy.
	ErrorStrategyFailFast ErrorStrategy = "fail_fast"

	// ErrorStrategyContinueOnError keeps running the failing node's siblings;
	// only the failing node's own descendants are skipped.
	ErrorStrategyContinueOnError ErrorStrategy = "continue_on_error"
)

// runnerConfig holds the configuration for a Runner, populated by Options.
type runnerConfig struct {
	// provider receives spans, metrics and logs. Nil disables observability.
	provider observability.Provider

	// errorStrategy defaults to ErrorStrategyFailFast.
	errorStrategy ErrorStrategy

	// statusObservers are attached to every execution context the runner creates.
	statusObservers []StatusObserver
}

// Option configures a Runner.
type Option func(*runnerConfig)

// WithObserver sets the observability provider. Without it the runner falls
// back to the provider carried by the context passed to Run, if any.
func WithObserver(provider observability.Provider) Option {
	return func(config *runnerConfig) {
		config.provider = provider
	}
}

// WithErrorStrategy sets the branch error strategy.
func WithErrorStrategy(strategy ErrorStrategy) Option {
	return func(config *runnerConfig) {
		config.errorStrategy = strategy
	}
}

// WithStatusObserver registers observers for node status changes.
func WithStatusObserver(observers ...StatusObserver) Option {
	return func(config *runnerConfig) {
		config.statusObservers = append(config.statusObservers, observers...)
	}
}

// runConfig holds per-run settings, populated by RunOptions.
type runConfig struct {
	startNodeID string
	inputs      map[string]any
	executionID string
	observers   []StatusObserver
}

// RunOption configures a single Run call.
type RunOption func(*runConfig)

// WithStartNode runs only nodeID (and what it reaches) and records it as the
// trigger node.
func WithStartNode(nodeID string) RunOption {
	return func(config *runConfig) {
		config.startNodeID = nodeID
	}
}

// WithInputs supplies the input of start nodes by id. Start nodes without an
// entry receive an empty map.
func WithInputs(inputs map[string]any) RunOption {
	return func(config *runConfig) {
		config.inputs = inputs
	}
}

// WithExecutionID fixes the execution id instead of generating one.
func WithExecutionID(executionID string) RunOption {
	return func(config *runConfig) {
		config.executionID = executionID
	}
}

// WithRunStatusObserver registers observers for this run only.
func WithRunStatusObserver(observers ...StatusObserver) RunOption {
	return func(config *runConfig) {
		config.observers = append(config.observers, observers...)
	}
}
