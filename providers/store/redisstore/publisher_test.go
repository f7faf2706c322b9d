package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/core/flow"
)

func TestPublisher_PublishesRunEvents(t *testing.T) {
	_, client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := Subscribe(ctx, client, "run-1")
	require.NoError(t, err)

	factory := engine.NewFactory()
	factory.Register("const", func(engine.Scope) (engine.Node, error) {
		return engine.NodeFunc(func(context.Context, any) (any, error) { return "done", nil }), nil
	})
	runner := engine.NewRunner(factory, engine.WithStatusObserver(NewPublisher(client, nil)))

	definition := &flow.Definition{Nodes: []flow.NodeDefinition{{ID: "n", Type: "const"}}}
	_, err = runner.Run(ctx, definition, engine.WithExecutionID("run-1"))
	require.NoError(t, err)

	var received []engine.StatusEvent
	for len(received) < 2 {
		select {
		case event := <-events:
			received = append(received, event)
		case <-ctx.Done():
			t.Fatalf("timed out, received %+v", received)
		}
	}

	assert.Equal(t, engine.StatusRunning, received[0].Status)
	assert.Equal(t, engine.StatusSuccess, received[1].Status)
	assert.Equal(t, "n", received[1].NodeID)
	assert.Equal(t, "run-1", received[1].ExecutionID)
	assert.Equal(t, "done", received[1].Result)
}

func TestPublisher_UnencodableResultStillPublishesStatus(t *testing.T) {
	_, client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := Subscribe(ctx, client, "run-2")
	require.NoError(t, err)

	NewPublisher(client, nil).OnNodeStatus(engine.StatusEvent{
		ExecutionID: "run-2",
		NodeID:      "n",
		Status:      engine.StatusSuccess,
		Result:      make(chan int),
	})

	select {
	case event := <-events:
		assert.Equal(t, engine.StatusSuccess, event.Status)
		assert.Nil(t, event.Result)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "aigoflow:run:abc", Channel("abc"))
}
