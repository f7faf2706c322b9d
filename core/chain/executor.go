package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/core/flow"
	"github.com/leofalp/aigoflow/providers/observability"
)

// AttrChainReference names the flow id of an unresolved ${result-flow-<id>}.
const AttrChainReference = "chain.reference"

// Item is one flow of a chain. Inputs maps start node ids to their input;
// strings anywhere inside may contain ${result-flow-<id>} references.
type Item struct {
	ID     string
	Flow   *flow.Definition
	Inputs map[string]any
}

// FlowStatus is the state of one chain item.
type FlowStatus string

const (
	FlowPending   FlowStatus = "pending"
	FlowRunning   FlowStatus = "running"
	FlowCompleted FlowStatus = "completed"
	FlowFailed    FlowStatus = "failed"
)

// FlowRun is the outcome of one item. Result is nil for items that never ran
// or failed with a configuration error.
type FlowRun struct {
	ID         string
	Status     FlowStatus
	Inputs     map[string]any
	Result     *engine.Result
	Err        error
	Unresolved []string
}

// Report is the outcome of a chain.
type Report struct {
	ChainID  string
	Flows    []FlowRun
	Duration time.Duration
}

// Result returns the run of flowID.
func (report *Report) Result(flowID string) (FlowRun, bool) {
	for _, run := range report.Flows {
		if run.ID == flowID {
			return run, true
		}
	}
	return FlowRun{}, false
}

// Callbacks are invoked synchronously as the chain progresses. Nil fields are
// skipped.
type Callbacks struct {
	OnFlowStart    func(flowID string)
	OnFlowComplete func(flowID string, result *engine.Result)
	OnError        func(flowID string, message string)
}

// Executor runs chains on top of an engine.Runner.
type Executor struct {
	runner    *engine.Runner
	store     ResultStore
	callbacks Callbacks
	provider  observability.Provider
	logger    *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithResultStore replaces the in-memory result store.
func WithResultStore(store ResultStore) Option {
	return func(executor *Executor) {
		executor.store = store
	}
}

// WithCallbacks sets the progress callbacks.
func WithCallbacks(callbacks Callbacks) Option {
	return func(executor *Executor) {
		executor.callbacks = callbacks
	}
}

// WithObserver sets the observability provider.
func WithObserver(provider observability.Provider) Option {
	return func(executor *Executor) {
		executor.provider = provider
	}
}

// WithLogger sets the logger used for warnings when no provider is
// configured. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(executor *Executor) {
		executor.logger = logger
	}
}

// NewExecutor creates an Executor.
func NewExecutor(runner *engine.Runner, opts ...Option) *Executor {
	executor := &Executor{runner: runner, store: NewMemoryStore(), logger: slog.Default()}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// RunOption configures a single chain run.
type RunOption func(*runConfig)

type runConfig struct {
	chainID string
}

// WithChainID fixes the chain id (the result store namespace) instead of
// generating one.
func WithChainID(chainID string) RunOption {
	return func(config *runConfig) {
		config.chainID = chainID
	}
}

// Run executes items in order. It returns the report and, if a flow failed,
// a *FlowError; later items are left pending.
func (executor *Executor) Run(ctx context.Context, items []Item, opts ...RunOption) (*Report, error) {
	config := &runConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.chainID == "" {
		config.chainID = uuid.NewString()
	}

	report := &Report{ChainID: config.chainID, Flows: make([]FlowRun, len(items))}
	for i, item := range items {
		report.Flows[i] = FlowRun{ID: item.ID, Status: FlowPending}
	}

	provider := executor.provider
	if provider == nil {
		provider = observability.ObserverFromContext(ctx)
	}

	start := time.Now()
	ctx, span := executor.observeChainStart(ctx, provider, config.chainID, len(items))

	for index, item := range items {
		flowRun, err := executor.runItem(ctx, provider, config.chainID, index, item)
		report.Flows[index] = flowRun
		if err != nil {
			report.Duration = time.Since(start)
			flowErr := &FlowError{FlowID: item.ID, Index: index, Err: err}
			executor.observeChainEnd(ctx, provider, span, report, flowErr)
			return report, flowErr
		}
	}

	report.Duration = time.Since(start)
	executor.observeChainEnd(ctx, provider, span, report, nil)
	return report, nil
}

func (executor *Executor) runItem(ctx context.Context, provider observability.Provider, chainID string, index int, item Item) (FlowRun, error) {
	flowRun := FlowRun{ID: item.ID, Status: FlowRunning}

	if executor.callbacks.OnFlowStart != nil {
		executor.callbacks.OnFlowStart(item.ID)
	}

	ctx, span := startFlowSpan(ctx, provider, item.ID, index)

	fail := func(err error) (FlowRun, error) {
		flowRun.Status = FlowFailed
		flowRun.Err = err
		if executor.callbacks.OnError != nil {
			executor.callbacks.OnError(item.ID, err.Error())
		}
		endFlowSpan(ctx, provider, span, item.ID, err)
		return flowRun, err
	}

	if item.Flow == nil {
		return fail(&engine.ConfigurationError{Reason: fmt.Sprintf("flow %q has no definition", item.ID)})
	}

	var lookupErr error
	lookup := func(flowID string) (any, bool) {
		result, ok, err := executor.store.Load(ctx, chainID, flowID)
		if err != nil {
			lookupErr = err
			return nil, false
		}
		return result, ok
	}

	inputs := make(map[string]any, len(item.Inputs))
	for nodeID, value := range item.Inputs {
		substituted, unresolved := substituteValue(value, lookup)
		inputs[nodeID] = substituted
		flowRun.Unresolved = append(flowRun.Unresolved, unresolved...)
	}
	flowRun.Inputs = inputs
	if lookupErr != nil {
		return fail(fmt.Errorf("failed to load prior results: %w", lookupErr))
	}
	for _, flowID := range flowRun.Unresolved {
		executor.warnUnresolved(ctx, provider, item.ID, flowID)
	}

	var runOpts []engine.RunOption
	if len(inputs) > 0 {
		runOpts = append(runOpts, engine.WithInputs(inputs))
	}
	result, err := executor.runner.Run(ctx, item.Flow, runOpts...)
	if err != nil {
		return fail(err)
	}
	flowRun.Result = result
	if result.Err != nil {
		return fail(result.Err)
	}

	if err := executor.store.Save(ctx, chainID, item.ID, result.Outputs); err != nil {
		return fail(fmt.Errorf("failed to store result: %w", err))
	}

	flowRun.Status = FlowCompleted
	if executor.callbacks.OnFlowComplete != nil {
		executor.callbacks.OnFlowComplete(item.ID, result)
	}
	endFlowSpan(ctx, provider, span, item.ID, nil)
	return flowRun, nil
}

func (executor *Executor) warnUnresolved(ctx context.Context, provider observability.Provider, flowID, reference string) {
	const msg = "unresolved flow reference left verbatim"
	if provider != nil {
		provider.Warn(ctx, msg,
			observability.String(observability.AttrChainFlowID, flowID),
			observability.String(AttrChainReference, reference),
		)
		return
	}
	if executor.logger != nil {
		executor.logger.WarnContext(ctx, msg,
			slog.String(observability.AttrChainFlowID, flowID),
			slog.String(AttrChainReference, reference),
		)
	}
}

func (executor *Executor) observeChainStart(ctx context.Context, provider observability.Provider, chainID string, total int) (context.Context, observability.Span) {
	if provider == nil {
		return ctx, nil
	}
	ctx, span := provider.StartSpan(ctx, observability.SpanChainExecute,
		observability.String(observability.AttrChainID, chainID),
		observability.Int(observability.AttrChainTotalFlows, total),
	)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, provider)
	provider.Info(ctx, "chain started",
		observability.String(observability.AttrChainID, chainID),
		observability.Int(observability.AttrChainTotalFlows, total),
	)
	return ctx, span
}

func (executor *Executor) observeChainEnd(ctx context.Context, provider observability.Provider, span observability.Span, report *Report, err error) {
	if provider == nil {
		return
	}
	attrs := []observability.Attribute{
		observability.String(observability.AttrChainID, report.ChainID),
		observability.Duration(observability.AttrDuration, report.Duration),
	}
	if err != nil {
		provider.Error(ctx, "chain halted", append(attrs, observability.Error(err))...)
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "chain halted")
		}
	} else {
		provider.Info(ctx, "chain completed", attrs...)
		if span != nil {
			span.SetStatus(observability.StatusOK, "chain completed")
		}
	}
	if span != nil {
		span.End()
	}
}

func startFlowSpan(ctx context.Context, provider observability.Provider, flowID string, index int) (context.Context, observability.Span) {
	if provider == nil {
		return ctx, nil
	}
	ctx, span := provider.StartSpan(ctx, observability.SpanChainFlow,
		observability.String(observability.AttrChainFlowID, flowID),
		observability.Int(observability.AttrChainFlowIndex, index),
	)
	return observability.ContextWithSpan(ctx, span), span
}

func endFlowSpan(ctx context.Context, provider observability.Provider, span observability.Span, flowID string, err error) {
	if provider == nil {
		return
	}
	status := string(FlowCompleted)
	if err != nil {
		status = string(FlowFailed)
	}
	provider.Counter(observability.MetricChainFlowCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, status),
	)
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "flow "+flowID+" failed")
	} else {
		span.SetStatus(observability.StatusOK, "flow "+flowID+" completed")
	}
	span.End()
}
