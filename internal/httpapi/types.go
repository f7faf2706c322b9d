package httpapi

import (
	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/core/flow"
)

// RunRequest is the body of POST /v1/runs.
type RunRequest struct {
	Flow        *flow.Definition `json:"flow"`
	StartNode   string           `json:"startNode,omitempty"`
	Inputs      map[string]any   `json:"inputs,omitempty"`
	ExecutionID string           `json:"executionId,omitempty"`
}

// NodeStatus is the final state of one node in a RunResponse.
type NodeStatus struct {
	Status engine.Status `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// RunResponse is the body returned by POST /v1/runs.
type RunResponse struct {
	ExecutionID string                `json:"executionId"`
	Status      string                `json:"status"`
	Outputs     []engine.Output       `json:"outputs"`
	Nodes       map[string]NodeStatus `json:"nodes"`
	Error       string                `json:"error,omitempty"`
	DurationMs  int64                 `json:"durationMs"`
}

// ChainFlowRequest is one flow of a ChainRequest.
type ChainFlowRequest struct {
	ID     string           `json:"id"`
	Flow   *flow.Definition `json:"flow"`
	Inputs map[string]any   `json:"inputs,omitempty"`
}

// ChainRequest is the body of POST /v1/chains.
type ChainRequest struct {
	ChainID string             `json:"chainId,omitempty"`
	Flows   []ChainFlowRequest `json:"flows"`
}

// ChainFlowResponse reports one flow of a chain.
type ChainFlowResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	ExecutionID string          `json:"executionId,omitempty"`
	Outputs     []engine.Output `json:"outputs,omitempty"`
	Unresolved  []string        `json:"unresolved,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// ChainResponse is the body returned by POST /v1/chains.
type ChainResponse struct {
	ChainID    string              `json:"chainId"`
	Status     string              `json:"status"`
	Flows      []ChainFlowResponse `json:"flows"`
	Error      string              `json:"error,omitempty"`
	DurationMs int64               `json:"durationMs"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
