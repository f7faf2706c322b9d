package input

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/leofalp/aigoflow/core/engine"
)

// Type is the node type name.
const Type = "input"

// Policy decides where received items go.
type Policy string

const (
	PolicyAppendCommon   Policy = "appendCommon"
	PolicyReplaceCommon  Policy = "replaceCommon"
	PolicyAppendElement  Policy = "appendElement"
	PolicyReplaceElement Policy = "replaceElement"
)

// targetsCommon reports whether the policy writes common items.
func (p Policy) targetsCommon() bool {
	return p == PolicyAppendCommon || p == PolicyReplaceCommon
}

// Accumulation gates whether a policy applies at all.
type Accumulation string

const (
	AccumulationNone           Accumulation = "none"
	AccumulationOncePerContext Accumulation = "oncePerContext"
	AccumulationAlways         Accumulation = "always"
)

// Mode selects how items leave the node.
type Mode string

const (
	// ModeBatch emits common items followed by element items.
	ModeBatch Mode = "batch"
	// ModeForeach emits nothing; an iterating group reads the items instead.
	ModeForeach Mode = "foreach"
)

// Config is decoded from the node data.
type Config struct {
	Policy       Policy       `mapstructure:"policy"`
	Accumulation Accumulation `mapstructure:"accumulation"`
	Mode         Mode         `mapstructure:"mode"`
	CommonItems  []any        `mapstructure:"commonItems"`
	ElementItems []any        `mapstructure:"elementItems"`
	Text         string       `mapstructure:"text"`
}

func (config *Config) applyDefaults() error {
	if config.Policy == "" {
		config.Policy = PolicyAppendElement
	}
	if config.Accumulation == "" {
		config.Accumulation = AccumulationAlways
	}
	if config.Mode == "" {
		config.Mode = ModeBatch
	}
	switch config.Policy {
	case PolicyAppendCommon, PolicyReplaceCommon, PolicyAppendElement, PolicyReplaceElement:
	default:
		return fmt.Errorf("unknown input policy %q", config.Policy)
	}
	switch config.Accumulation {
	case AccumulationNone, AccumulationOncePerContext, AccumulationAlways:
	default:
		return fmt.Errorf("unknown accumulation mode %q", config.Accumulation)
	}
	switch config.Mode {
	case ModeBatch, ModeForeach:
	default:
		return fmt.Errorf("unknown execution mode %q", config.Mode)
	}
	return nil
}

// Node is a chaining sink bound to one run.
type Node struct {
	id      string
	config  Config
	execCtx *engine.ExecutionContext

	mu       sync.Mutex
	common   []any
	elements []any
	text     strings.Builder
}

// New is the engine.Constructor for input nodes.
func New(scope engine.Scope) (engine.Node, error) {
	var config Config
	if err := engine.DecodeConfig(scope.Data(), &config); err != nil {
		return nil, err
	}
	return NewNode(scope.ID(), config, scope.Context())
}

// NewNode creates an input node. execCtx backs the once-per-context gate
// and may be nil, in which case a private context is used.
func NewNode(id string, config Config, execCtx *engine.ExecutionContext) (*Node, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	if execCtx == nil {
		execCtx = engine.NewExecutionContext("")
	}
	node := &Node{
		id:       id,
		config:   config,
		execCtx:  execCtx,
		common:   append([]any(nil), config.CommonItems...),
		elements: append([]any(nil), config.ElementItems...),
	}
	node.text.WriteString(config.Text)
	return node, nil
}

// Execute folds a non-empty input into the items and, in batch mode,
// returns common items followed by element items.
func (n *Node) Execute(_ context.Context, input any) (any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !engine.IsEmptyInput(input) && n.accepts() {
		n.apply(input)
	}

	if n.config.Mode == ModeForeach {
		return nil, nil
	}
	return n.items(), nil
}

// AcceptsRevisits implements engine.Reentrant so every chained value reaching
// the node in a run is accumulated.
func (n *Node) AcceptsRevisits() bool {
	return true
}

// Items implements engine.ItemSource.
func (n *Node) Items() []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.items()
}

// Text returns the raw text received so far, one value per line.
func (n *Node) Text() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text.String()
}

// accepts applies the accumulation gate. The once-per-context mode only
// restricts policies that target common items.
func (n *Node) accepts() bool {
	switch n.config.Accumulation {
	case AccumulationNone:
		return false
	case AccumulationOncePerContext:
		if !n.config.Policy.targetsCommon() {
			return true
		}
		if n.execCtx.HasAccumulatedOnce(n.id) {
			n.execCtx.Log(n.id, "input already accumulated in this context, ignoring")
			return false
		}
		n.execCtx.MarkAccumulatedOnce(n.id)
		return true
	default:
		return true
	}
}

func (n *Node) apply(input any) {
	received := toItems(input)
	if text, ok := input.(string); ok {
		if n.text.Len() > 0 {
			n.text.WriteByte('\n')
		}
		n.text.WriteString(text)
	}

	switch n.config.Policy {
	case PolicyAppendCommon:
		n.common = append(n.common, received...)
	case PolicyReplaceCommon:
		n.common = received
	case PolicyAppendElement:
		n.elements = append(n.elements, received...)
	case PolicyReplaceElement:
		n.elements = received
	}
}

func (n *Node) items() []any {
	items := make([]any, 0, len(n.common)+len(n.elements))
	items = append(items, n.common...)
	return append(items, n.elements...)
}

// toItems spreads a list into its elements; anything else is one item.
func toItems(input any) []any {
	switch typed := input.(type) {
	case []any:
		return append([]any(nil), typed...)
	case []string:
		items := make([]any, len(typed))
		for i, s := range typed {
			items[i] = s
		}
		return items
	default:
		return []any{input}
	}
}
