package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/aigoflow/core/chain"
	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/core/flow"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStore_SaveLoad(t *testing.T) {
	_, client := newTestClient(t)
	store := NewFromClient(client)
	ctx := context.Background()

	outputs := []engine.Output{{NodeID: "n", NodeName: "N", NodeType: "llm", Result: "X"}}
	require.NoError(t, store.Save(ctx, "c1", "A", outputs))

	loaded, ok, err := store.Load(ctx, "c1", "A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "X", chain.Render(loaded))

	_, ok, err = store.Load(ctx, "c1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Load(ctx, "other-chain", "A")
	require.NoError(t, err)
	assert.False(t, ok, "results must be scoped by chain id")
}

func TestStore_KeysAndTTL(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewFromClient(client, WithTTL(time.Minute), WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "c1", "A", "value"))

	assert.True(t, mr.Exists("test:c1:A"))
	assert.Equal(t, time.Minute, mr.TTL("test:c1:A"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Load(ctx, "c1", "A")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_FlowsAndDelete(t *testing.T) {
	_, client := newTestClient(t)
	store := NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "c1", "A", 1))
	require.NoError(t, store.Save(ctx, "c1", "B", 2))

	flows, err := store.Flows(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, flows)

	require.NoError(t, store.Delete(ctx, "c1"))
	_, ok, err := store.Load(ctx, "c1", "B")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_LoadErrorOnClosedServer(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := NewFromClient(client)
	mr.Close()

	_, _, err = store.Load(context.Background(), "c1", "A")
	assert.Error(t, err)
}

// TestStore_BacksChainExecutor checks that prior results round-trip through
// Redis into ${result-flow-<id>} substitution.
func TestStore_BacksChainExecutor(t *testing.T) {
	_, client := newTestClient(t)

	var seen any
	factory := engine.NewFactory()
	factory.Register("pass", func(scope engine.Scope) (engine.Node, error) {
		output, hasOutput := scope.Data()["output"]
		return engine.NodeFunc(func(_ context.Context, input any) (any, error) {
			if hasOutput {
				return output, nil
			}
			seen = input
			return input, nil
		}), nil
	})
	executor := chain.NewExecutor(engine.NewRunner(factory), chain.WithResultStore(NewFromClient(client)))

	items := []chain.Item{
		{ID: "A", Flow: &flow.Definition{Nodes: []flow.NodeDefinition{{ID: "a", Type: "pass", Data: map[string]any{"output": []any{map[string]any{"result": "X"}}}}}}},
		{ID: "B", Flow: &flow.Definition{Nodes: []flow.NodeDefinition{{ID: "b", Type: "pass"}}}, Inputs: map[string]any{"b": "prefix-${result-flow-A}"}},
	}

	_, err := executor.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, "prefix-X", seen)
}
