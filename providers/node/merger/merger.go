package merger

import (
	"context"
	"fmt"
	"sync"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/internal/utils"
)

// Type is the node type name.
const Type = "merger"

// Strategy selects the shape of the merged output.
type Strategy string

const (
	StrategyArray  Strategy = "array"
	StrategyObject Strategy = "object"
)

// Config is decoded from the node data.
type Config struct {
	Strategy Strategy `mapstructure:"strategy"`
	// KeyFields are candidate fields used as the buffer key by the object
	// strategy; the first one present on an input wins.
	KeyFields []string `mapstructure:"keyFields"`
}

// Merger buffers inputs for the lifetime of one run. It is re-entrant: every
// visit buffers its input and refreshes the node output.
type Merger struct {
	config Config

	mu      sync.Mutex
	keys    []string
	buffer  map[string]any
	counter int
}

// New is the engine.Constructor for merger nodes.
func New(scope engine.Scope) (engine.Node, error) {
	var config Config
	if err := engine.DecodeConfig(scope.Data(), &config); err != nil {
		return nil, err
	}
	return NewMerger(config)
}

// NewMerger creates a Merger with an empty buffer.
func NewMerger(config Config) (*Merger, error) {
	switch config.Strategy {
	case "":
		config.Strategy = StrategyArray
	case StrategyArray, StrategyObject:
	default:
		return nil, fmt.Errorf("unknown merge strategy %q", config.Strategy)
	}
	return &Merger{config: config, buffer: make(map[string]any)}, nil
}

// Execute buffers input and returns the current snapshot.
func (m *Merger) Execute(_ context.Context, input any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.keyFor(input)
	if _, exists := m.buffer[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.buffer[key] = input
	m.counter++

	if m.config.Strategy == StrategyObject {
		return m.mergeAsObject(), nil
	}
	return m.mergeAsArray(), nil
}

// AcceptsRevisits implements engine.Reentrant.
func (m *Merger) AcceptsRevisits() bool {
	return true
}

// Len returns the number of buffered entries.
func (m *Merger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

func (m *Merger) keyFor(input any) string {
	if m.config.Strategy == StrategyObject && len(m.config.KeyFields) > 0 {
		if fields, ok := input.(map[string]any); ok {
			for _, field := range m.config.KeyFields {
				if value, present := fields[field]; present {
					return utils.Stringify(value)
				}
			}
		}
	}
	return fmt.Sprintf("input_%d", m.counter)
}

func (m *Merger) mergeAsArray() []any {
	merged := make([]any, 0, len(m.keys))
	for _, key := range m.keys {
		merged = append(merged, m.buffer[key])
	}
	return merged
}

func (m *Merger) mergeAsObject() map[string]any {
	merged := make(map[string]any, len(m.buffer))
	for key, value := range m.buffer {
		merged[key] = value
	}
	return merged
}
