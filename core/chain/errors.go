package chain

import (
	"errors"
	"fmt"
)

// ErrChain marks the failure of a flow that halted a chain.
var ErrChain = errors.New("chain halted")

// FlowError reports which flow halted the chain. It matches ErrChain and Err.
type FlowError struct {
	FlowID string
	Index  int
	Err    error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("chain halted at flow %q (#%d): %v", e.FlowID, e.Index, e.Err)
}

func (e *FlowError) Unwrap() []error {
	return []error{ErrChain, e.Err}
}
