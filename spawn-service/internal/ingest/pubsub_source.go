package ingest

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/pkg/pubsub"
)

// PubSubSource reads engagement events that an external live-stream client
// publishes on engagement:room:{username}:to_spawner.
type PubSubSource struct {
	subscriber pubsub.Subscriber
	username   string
	channel    string
}

func NewPubSubSource(sub pubsub.Subscriber, username string) *PubSubSource {
	return &PubSubSource{
		subscriber: sub,
		username:   username,
		channel:    pubsub.EngagementChannel(username),
	}
}

// Run dispatches events in arrival order until ctx is cancelled or the
// subscription closes. Bad events are skipped.
func (s *PubSubSource) Run(ctx context.Context, cb Callbacks) error {
	events, err := s.subscriber.Subscribe(ctx, s.channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	defer s.subscriber.Unsubscribe(context.Background(), s.channel)

	ctx = log.WithStreamer(ctx, s.username)
	l := log.Ctx(ctx)
	l.Info().Str("channel", s.channel).Msg("engagement source started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				l.Warn().Str("channel", s.channel).Msg("engagement source closed")
				return nil
			}
			if err := s.dispatch(ctx, event, cb); err != nil {
				l.Warn().Err(err).Str(log.FieldEvent, event.Type).Msg("skipping engagement event")
			}
		}
	}
}

func (s *PubSubSource) dispatch(ctx context.Context, event *pubsub.Event, cb Callbacks) error {
	switch event.Type {
	case pubsub.EventConnect:
		var p pubsub.ConnectPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("bad connect payload: %w", err)
		}
		return cb.OnConnect(ctx, p.StreamerID, p.RoomID)

	case pubsub.EventLike:
		var p pubsub.LikePayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("bad like payload: %w", err)
		}
		return cb.OnLikeBatch(ctx, p.Count)

	case pubsub.EventGift:
		var p pubsub.GiftPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("bad gift payload: %w", err)
		}
		return cb.OnGift(ctx, p.GiftName, p.SenderID, p.ComboCount)

	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}
