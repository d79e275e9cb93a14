package ingest

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
)

// Listener turns callback invocations into engine events. Rejected events
// are logged and returned; nothing here stops the stream.
type Listener struct {
	handler EventHandler
}

func NewListener(h EventHandler) *Listener {
	return &Listener{handler: h}
}

func (l *Listener) OnConnect(ctx context.Context, streamerID, roomID string) error {
	return l.handle(ctx, domain.ConnectEvent{StreamerID: streamerID, RoomID: roomID})
}

func (l *Listener) OnLikeBatch(ctx context.Context, count int64) error {
	return l.handle(ctx, domain.LikeEvent{Count: count})
}

func (l *Listener) OnGift(ctx context.Context, giftName, senderID string, comboCount int) error {
	return l.handle(ctx, domain.GiftEvent{GiftName: giftName, SenderID: senderID, ComboCount: comboCount})
}

func (l *Listener) handle(ctx context.Context, ev domain.EngagementEvent) error {
	if _, err := l.handler.Handle(ctx, ev); err != nil {
		logger := log.Ctx(ctx)
		if errors.Is(err, domain.ErrInvalidEvent) {
			// Already reported as a status line by the engine.
			logger.Debug().Err(err).Msg("engagement event rejected")
		} else {
			logger.Error().Err(err).Msg("engagement event failed")
		}
		return err
	}
	return nil
}
