package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/providers/observability"
)

const (
	// ChannelPrefix namespaces status channels; the execution id follows.
	ChannelPrefix = "aigoflow:run:"
	// publishTimeout bounds a single PUBLISH, since observers have no context.
	publishTimeout = 2 * time.Second
)

// Channel returns the pub/sub channel of an execution.
func Channel(executionID string) string {
	return ChannelPrefix + executionID
}

// Publisher implements engine.StatusObserver by publishing every status
// event as JSON. Publish failures are logged and never affect the run.
type Publisher struct {
	client   *backend.Client
	provider observability.Provider
}

// NewPublisher creates a Publisher. provider may be nil.
func NewPublisher(client *backend.Client, provider observability.Provider) *Publisher {
	return &Publisher{client: client, provider: provider}
}

// OnNodeStatus publishes event on Channel(event.ExecutionID).
func (p *Publisher) OnNodeStatus(event engine.StatusEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.publish(ctx, event); err != nil && p.provider != nil {
		p.provider.Warn(ctx, "failed to publish status event",
			observability.String(observability.AttrFlowExecutionID, event.ExecutionID),
			observability.String(observability.AttrFlowNodeID, event.NodeID),
			observability.Error(err),
		)
	}
}

func (p *Publisher) publish(ctx context.Context, event engine.StatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		// Results that cannot be encoded are dropped, the status still goes out.
		event.Result = nil
		if payload, err = json.Marshal(event); err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
	}
	if err := p.client.Publish(ctx, Channel(event.ExecutionID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	return nil
}

// Subscribe follows the status events of executionID until ctx is done.
// The returned channel is closed when the subscription ends.
func Subscribe(ctx context.Context, client *backend.Client, executionID string) (<-chan engine.StatusEvent, error) {
	pubsub := client.Subscribe(ctx, Channel(executionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	events := make(chan engine.StatusEvent)
	go func() {
		defer close(events)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-messages:
				if !ok {
					return
				}
				var event engine.StatusEvent
				if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}
