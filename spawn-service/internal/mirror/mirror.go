package mirror

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/weiawesome/wes-io-live/pkg/pubsub"
)

// PubSubMirror republishes renderer batches on the event bus so other
// services can follow what was spawned.
type PubSubMirror struct {
	publisher pubsub.Publisher
	username  string
	channel   string
}

func NewPubSubMirror(publisher pubsub.Publisher, username string) *PubSubMirror {
	return &PubSubMirror{
		publisher: publisher,
		username:  username,
		channel:   pubsub.SpawnChannel(username),
	}
}

// PublishBatch wraps an encoded batch in a spawn_batch event.
func (m *PubSubMirror) PublishBatch(ctx context.Context, data []byte) error {
	event, err := pubsub.NewEvent(pubsub.EventSpawnBatch, m.username, json.RawMessage(data))
	if err != nil {
		return fmt.Errorf("failed to build spawn_batch event: %w", err)
	}
	if err := m.publisher.Publish(ctx, m.channel, event); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", m.channel, err)
	}
	return nil
}
