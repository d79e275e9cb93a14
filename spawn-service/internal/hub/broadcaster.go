package hub

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is the broadcast tick.
const DefaultInterval = 100 * time.Millisecond

// Drainer hands over every pending command at once.
type Drainer interface {
	DrainAll() []domain.SpawnCommand
}

// Mirror receives a copy of every encoded batch.
type Mirror interface {
	PublishBatch(ctx context.Context, data []byte) error
}

// Broadcaster periodically drains the queue and fans each batch out to the hub.
// Delivery is at most once per subscriber; a failed write drops the subscriber
// and the batch is not retried.
type Broadcaster struct {
	queue    Drainer
	hub      *Hub
	interval time.Duration
	mirror   Mirror

	mirrorTimeout time.Duration
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithMirror publishes each batch to m as well as to the subscribers.
// Publishing runs alongside the subscriber writes and is bounded by the
// mirror timeout.
func WithMirror(m Mirror) BroadcasterOption {
	return func(b *Broadcaster) { b.mirror = m }
}

// WithMirrorTimeout bounds one mirror publish. It defaults to the interval.
func WithMirrorTimeout(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) {
		if d > 0 {
			b.mirrorTimeout = d
		}
	}
}

func NewBroadcaster(q Drainer, h *Hub, interval time.Duration, opts ...BroadcasterOption) *Broadcaster {
	if interval <= 0 {
		interval = DefaultInterval
	}
	b := &Broadcaster{
		queue:    q,
		hub:      h,
		interval: interval,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.mirrorTimeout <= 0 {
		b.mirrorTimeout = interval
	}
	return b
}

// Run ticks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	l := log.L()
	l.Info().Dur("interval", b.interval).Msg("broadcast loop started")

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("broadcast loop stopped")
			return
		case <-ticker.C:
			b.Flush(ctx)
		}
	}
}

// Flush runs a single tick and returns how many subscribers received the batch.
func (b *Broadcaster) Flush(ctx context.Context) int {
	cmds := b.queue.DrainAll()
	if len(cmds) == 0 {
		return 0
	}

	l := log.L()

	data, err := domain.EncodeBatch(cmds)
	if err != nil {
		l.Error().Err(err).Int(log.FieldBatchSize, len(cmds)).Msg("dropping unencodable batch")
		return 0
	}

	var g errgroup.Group

	if b.mirror != nil {
		g.Go(func() error {
			mctx, cancel := context.WithTimeout(ctx, b.mirrorTimeout)
			defer cancel()
			if err := b.mirror.PublishBatch(mctx, data); err != nil {
				l.Warn().Err(err).Msg("failed to mirror batch")
			}
			return nil
		})
	}

	subs := b.hub.Snapshot()
	if len(subs) == 0 {
		l.Debug().Int(log.FieldBatchSize, len(cmds)).Msg("no renderers connected, batch discarded")
		g.Wait()
		return 0
	}

	var delivered atomic.Int64
	for _, sub := range subs {
		g.Go(func() error {
			if err := sub.Write(data); err != nil {
				err = fmt.Errorf("%w: %s: %v", domain.ErrSubscriberWrite, sub.ID(), err)
				l.Warn().Err(err).Str(log.FieldClientID, sub.ID()).Msg("removing renderer")
				b.hub.Unregister(sub)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	g.Wait()

	l.Debug().
		Int(log.FieldBatchSize, len(cmds)).
		Int(log.FieldSubscribers, len(subs)).
		Int64("delivered", delivered.Load()).
		Msg("batch broadcast")

	return int(delivered.Load())
}
