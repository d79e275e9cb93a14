package ingest

import (
	"context"

	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
)

// EventHandler applies one engagement event. rules.Engine implements it.
type EventHandler interface {
	Handle(ctx context.Context, ev domain.EngagementEvent) ([]domain.SpawnCommand, error)
}

// Callbacks is what an engagement client drives: one call per connect,
// like batch and gift, at the client's own cadence.
type Callbacks interface {
	OnConnect(ctx context.Context, streamerID, roomID string) error
	OnLikeBatch(ctx context.Context, count int64) error
	OnGift(ctx context.Context, giftName, senderID string, comboCount int) error
}

// Source delivers engagement events to Callbacks until ctx ends or the
// upstream stops. A stopped source leaves the rest of the service running.
type Source interface {
	Run(ctx context.Context, cb Callbacks) error
}
