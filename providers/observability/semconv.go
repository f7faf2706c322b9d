package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the engine, the chain executor and the node implementations.

// --- Flow Attributes ---

const (
	// AttrFlowExecutionID is the unique id of one run (ExecutionContext)
	AttrFlowExecutionID = "flow.execution.id"

	// AttrFlowNodeID identifies the node within the flow
	AttrFlowNodeID = "flow.node.id"

	// AttrFlowNodeType is the registered type name of the node
	AttrFlowNodeType = "flow.node.type"

	// AttrFlowNodeDepth is the breadth-first depth of the node
	AttrFlowNodeDepth = "flow.node.depth"

	// AttrFlowStartNodes lists the start node ids of a run
	AttrFlowStartNodes = "flow.start_nodes"

	// AttrFlowTriggerNode is the explicit start node of a run, if any
	AttrFlowTriggerNode = "flow.trigger_node"

	// AttrFlowTotalNodes is the number of nodes in the flow definition
	AttrFlowTotalNodes = "flow.total_nodes"

	// AttrFlowErrorStrategy is the configured branch error strategy
	AttrFlowErrorStrategy = "flow.error_strategy"

	// AttrFlowGroupID is the id of the group running an iteration
	AttrFlowGroupID = "flow.group.id"

	// AttrFlowIterationIndex is the zero-based index of the current iteration
	AttrFlowIterationIndex = "flow.iteration.index"

	// AttrFlowIterationTotal is the number of items in the iteration source
	AttrFlowIterationTotal = "flow.iteration.total"
)

// --- Chain Attributes ---

const (
	// AttrChainID identifies one chain execution
	AttrChainID = "chain.id"

	// AttrChainFlowID identifies a flow within a chain
	AttrChainFlowID = "chain.flow.id"

	// AttrChainFlowIndex is the position of the flow within the chain
	AttrChainFlowIndex = "chain.flow.index"

	// AttrChainTotalFlows is the number of flows in the chain
	AttrChainTotalFlows = "chain.total_flows"
)

// --- LLM Attributes ---

const (
	// AttrLLMModel is the model identifier (e.g., "gpt-4o-mini")
	AttrLLMModel = "llm.model"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTokensTotal is the total number of tokens
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanFlowRun is the span name for a whole run of a flow
	SpanFlowRun = "flow.run"

	// SpanFlowNodeExecute is the span name for a single node execution
	SpanFlowNodeExecute = "flow.node.execute"

	// SpanFlowGroupIteration is the span name for one iteration of a group
	SpanFlowGroupIteration = "flow.group.iteration"

	// SpanChainExecute is the span name for a whole chain
	SpanChainExecute = "chain.execute"

	// SpanChainFlow is the span name for one flow within a chain
	SpanChainFlow = "chain.flow"
)

// --- Metric Names ---

const (
	// MetricNodeCount counts node executions by type and final status
	MetricNodeCount = "aigoflow.node.count"

	// MetricNodeDuration records node execution duration in seconds
	MetricNodeDuration = "aigoflow.node.duration"

	// MetricRunDuration records whole-run duration in seconds
	MetricRunDuration = "aigoflow.run.duration"

	// MetricChainFlowCount counts chain flows by final status
	MetricChainFlowCount = "aigoflow.chain.flow.count"
)
