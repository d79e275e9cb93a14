package ingest

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/pkg/pubsub"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/catalog"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/queue"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/rules"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/status"
)

type fakeSubscriber struct {
	ch           chan *pubsub.Event
	subscribeErr error

	mu           sync.Mutex
	subscribed   []string
	unsubscribed []string
}

func (f *fakeSubscriber) Subscribe(_ context.Context, channel string) (<-chan *pubsub.Event, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.mu.Lock()
	f.subscribed = append(f.subscribed, channel)
	f.mu.Unlock()
	return f.ch, nil
}

func (f *fakeSubscriber) Unsubscribe(_ context.Context, channel string) error {
	f.mu.Lock()
	f.unsubscribed = append(f.unsubscribed, channel)
	f.mu.Unlock()
	return nil
}

func newPipeline(t *testing.T) (*Listener, *queue.Queue) {
	t.Helper()
	q := queue.New()
	engine, err := rules.New(rules.Thresholds{Enemy: 20, Boss: 1000, Item: 100}, catalog.Default(), q,
		rules.WithRand(rand.New(rand.NewPCG(9, 9))),
		rules.WithStatusHook(status.Discard),
	)
	require.NoError(t, err)
	return NewListener(engine), q
}

func mustEvent(t *testing.T, typ string, payload interface{}) *pubsub.Event {
	t.Helper()
	ev, err := pubsub.NewEvent(typ, "streamer", payload)
	require.NoError(t, err)
	return ev
}

func TestListenerCallbacks(t *testing.T) {
	l, q := newPipeline(t)
	ctx := context.Background()

	require.NoError(t, l.OnConnect(ctx, "streamer", "123"))
	require.NoError(t, l.OnLikeBatch(ctx, 25))
	require.NoError(t, l.OnGift(ctx, "Rose", "alice", 3))
	require.NoError(t, l.OnGift(ctx, "Unknown Gift", "bob", 5))

	err := l.OnLikeBatch(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	cmds := q.DrainAll()
	require.Len(t, cmds, 5)
	assert.Equal(t, domain.NewLikeCountUpdate(25), cmds[0])
	assert.Equal(t, domain.KindSpawnEnemy, cmds[1].Kind)
	for _, c := range cmds[2:] {
		assert.Equal(t, domain.NewSpawnEnemy("Beetle", "alice"), c)
	}
}

func TestPubSubSourceDispatches(t *testing.T) {
	l, q := newPipeline(t)
	sub := &fakeSubscriber{ch: make(chan *pubsub.Event, 10)}
	src := NewPubSubSource(sub, "streamer")

	sub.ch <- mustEvent(t, pubsub.EventConnect, pubsub.ConnectPayload{StreamerID: "streamer", RoomID: "42"})
	sub.ch <- mustEvent(t, pubsub.EventLike, pubsub.LikePayload{Count: 10})
	sub.ch <- mustEvent(t, "follow", map[string]string{"user": "x"})
	sub.ch <- &pubsub.Event{Type: pubsub.EventGift, Payload: []byte(`"not an object"`)}
	sub.ch <- mustEvent(t, pubsub.EventLike, pubsub.LikePayload{Count: -5})
	sub.ch <- mustEvent(t, pubsub.EventGift, pubsub.GiftPayload{GiftName: "Rose", SenderID: "mallory", ComboCount: math.MaxInt})
	sub.ch <- mustEvent(t, pubsub.EventGift, pubsub.GiftPayload{GiftName: "Finger heart", SenderID: "carol", ComboCount: 2})
	close(sub.ch)

	require.NoError(t, src.Run(context.Background(), l))

	assert.Equal(t, []domain.SpawnCommand{
		domain.NewLikeCountUpdate(10),
		domain.NewSpawnItem("Tier1", "carol"),
		domain.NewSpawnItem("Tier1", "carol"),
	}, q.DrainAll())

	assert.Equal(t, []string{"engagement:room:streamer:to_spawner"}, sub.subscribed)
	assert.Equal(t, []string{"engagement:room:streamer:to_spawner"}, sub.unsubscribed)
}

func TestPubSubSourceStopsOnCancel(t *testing.T) {
	l, _ := newPipeline(t)
	sub := &fakeSubscriber{ch: make(chan *pubsub.Event)}
	src := NewPubSubSource(sub, "streamer")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, l) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("source did not stop")
	}
}

func TestPubSubSourceSubscribeError(t *testing.T) {
	l, _ := newPipeline(t)
	boom := errors.New("no broker")
	src := NewPubSubSource(&fakeSubscriber{subscribeErr: boom}, "streamer")

	err := src.Run(context.Background(), l)
	assert.ErrorIs(t, err, boom)
}

func TestPubSubSourceTagsStatusLines(t *testing.T) {
	q := queue.New()
	engine, err := rules.New(rules.Thresholds{Enemy: 20, Boss: 1000, Item: 100}, catalog.Default(), q)
	require.NoError(t, err)

	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), zerolog.New(&buf).Level(zerolog.InfoLevel))

	sub := &fakeSubscriber{ch: make(chan *pubsub.Event, 1)}
	sub.ch <- mustEvent(t, pubsub.EventLike, pubsub.LikePayload{Count: 4})
	close(sub.ch)

	require.NoError(t, NewPubSubSource(sub, "streamer").Run(ctx, NewListener(engine)))

	assert.Contains(t, buf.String(), `"log_type":"status"`)
	assert.Contains(t, buf.String(), `"streamer":"streamer"`)
	assert.Contains(t, buf.String(), "Received 4 likes! Total: 4")
}
