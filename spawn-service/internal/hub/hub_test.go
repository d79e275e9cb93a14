package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/queue"
)

type fakeSubscriber struct {
	id       string
	writeErr error
	block    chan struct{}

	mu     sync.Mutex
	writes [][]byte
	closed int
}

func newFake(id string) *fakeSubscriber { return &fakeSubscriber{id: id} }

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Write(data []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSubscriber) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

func (f *fakeSubscriber) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeMirror struct {
	mu      sync.Mutex
	batches [][]byte
	err     error
}

func (m *fakeMirror) PublishBatch(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, data)
	return m.err
}

// stallingMirror blocks until its context gives up.
type stallingMirror struct {
	errs chan error
}

func (m *stallingMirror) PublishBatch(ctx context.Context, _ []byte) error {
	<-ctx.Done()
	m.errs <- ctx.Err()
	return ctx.Err()
}

func TestRegisterUnregister(t *testing.T) {
	h := NewHub()
	a, b := newFake("a"), newFake("b")

	h.Register(a)
	h.Register(b)
	assert.Equal(t, 2, h.Count())

	h.Unregister(a)
	assert.Equal(t, 1, h.Count())
	assert.Equal(t, 1, a.closeCount())

	// Idempotent: a second removal neither fails nor closes again.
	h.Unregister(a)
	assert.Equal(t, 1, h.Count())
	assert.Equal(t, 1, a.closeCount())

	h.Close()
	assert.Equal(t, 0, h.Count())
	assert.Equal(t, 1, b.closeCount())
}

func TestUnregisterIgnoresReplacedSubscriber(t *testing.T) {
	h := NewHub()
	old, replacement := newFake("same"), newFake("same")

	h.Register(old)
	h.Register(replacement)
	h.Unregister(old)

	assert.Equal(t, 1, h.Count())
	assert.Equal(t, 0, replacement.closeCount())
}

func TestSnapshotToleratesConcurrentChanges(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		sub := newFake(string(rune('A' + i)))
		go func() {
			defer wg.Done()
			h.Register(sub)
			h.Unregister(sub)
		}()
		go func() {
			defer wg.Done()
			for _, s := range h.Snapshot() {
				_ = s.ID()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Count())
}

func TestFlushBroadcastsOneBatch(t *testing.T) {
	q := queue.New()
	h := NewHub()
	a, b := newFake("a"), newFake("b")
	h.Register(a)
	h.Register(b)

	q.Enqueue(domain.NewLikeCountUpdate(25))
	q.Enqueue(domain.NewSpawnEnemy("Wisp", domain.SenderChat))

	br := NewBroadcaster(q, h, time.Hour)
	assert.Equal(t, 2, br.Flush(context.Background()))

	want := `[{"event":"like_count","data":25,"sender":"chat"},{"event":"spawn_enemy","monster":"Wisp","sender":"chat"}]`
	for _, sub := range []*fakeSubscriber{a, b} {
		got := sub.received()
		require.Len(t, got, 1)
		assert.JSONEq(t, want, string(got[0]))
		assert.Equal(t, want, string(got[0]))
	}

	// Nothing pending: no write at all.
	assert.Equal(t, 0, br.Flush(context.Background()))
	assert.Len(t, a.received(), 1)
}

func TestFlushRemovesFailingSubscriber(t *testing.T) {
	q := queue.New()
	h := NewHub()
	good, bad := newFake("good"), newFake("bad")
	bad.writeErr = errors.New("broken pipe")
	h.Register(good)
	h.Register(bad)

	br := NewBroadcaster(q, h, time.Hour)

	q.Enqueue(domain.NewLikeCountUpdate(1))
	assert.Equal(t, 1, br.Flush(context.Background()))
	assert.Equal(t, 1, h.Count())
	assert.Equal(t, 1, bad.closeCount())

	q.Enqueue(domain.NewLikeCountUpdate(2))
	assert.Equal(t, 1, br.Flush(context.Background()))

	assert.Len(t, good.received(), 2)
	assert.Empty(t, bad.received())
	assert.Equal(t, 0, q.Len(), "failed batches are not re-enqueued")
}

func TestFlushWithoutSubscribersDiscards(t *testing.T) {
	q := queue.New()
	h := NewHub()
	br := NewBroadcaster(q, h, time.Hour)

	q.Enqueue(domain.NewSpawnBoss("Titan", domain.SenderChat))
	assert.Equal(t, 0, br.Flush(context.Background()))
	assert.Equal(t, 0, q.Len())

	// A late joiner only sees what comes after it connected.
	late := newFake("late")
	h.Register(late)
	q.Enqueue(domain.NewLikeCountUpdate(3))
	br.Flush(context.Background())

	got := late.received()
	require.Len(t, got, 1)
	assert.Equal(t, `[{"event":"like_count","data":3,"sender":"chat"}]`, string(got[0]))
}

func TestFlushWritesConcurrently(t *testing.T) {
	q := queue.New()
	h := NewHub()
	slow, fast := newFake("slow"), newFake("fast")
	slow.block = make(chan struct{})
	h.Register(slow)
	h.Register(fast)

	br := NewBroadcaster(q, h, time.Hour)
	q.Enqueue(domain.NewLikeCountUpdate(1))

	done := make(chan int)
	go func() { done <- br.Flush(context.Background()) }()

	// The fast subscriber is served while the slow one is still stuck.
	require.Eventually(t, func() bool { return len(fast.received()) == 1 }, time.Second, 5*time.Millisecond)

	select {
	case <-done:
		t.Fatal("flush returned before the slow write finished")
	default:
	}

	close(slow.block)
	assert.Equal(t, 2, <-done)
}

func TestFlushMirrorsBatch(t *testing.T) {
	q := queue.New()
	h := NewHub()
	m := &fakeMirror{err: errors.New("redis down")}
	br := NewBroadcaster(q, h, time.Hour, WithMirror(m))

	q.Enqueue(domain.NewSpawnItem("Tier4", "alice"))
	br.Flush(context.Background())
	br.Flush(context.Background())

	require.Len(t, m.batches, 1)
	assert.Equal(t, `[{"event":"spawn_item","item":"Tier4","sender":"alice"}]`, string(m.batches[0]))
}

func TestStalledMirrorDoesNotDelayRenderers(t *testing.T) {
	q := queue.New()
	h := NewHub()
	sub := newFake("r")
	h.Register(sub)

	m := &stallingMirror{errs: make(chan error, 1)}
	br := NewBroadcaster(q, h, time.Hour, WithMirror(m), WithMirrorTimeout(time.Second))

	q.Enqueue(domain.NewLikeCountUpdate(7))
	done := make(chan int, 1)
	go func() { done <- br.Flush(context.Background()) }()

	// The renderer is served while the mirror is still stuck.
	require.Eventually(t, func() bool { return len(sub.received()) == 1 }, 500*time.Millisecond, 5*time.Millisecond)

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(3 * time.Second):
		t.Fatal("flush not bounded by the mirror timeout")
	}
	assert.ErrorIs(t, <-m.errs, context.DeadlineExceeded)
}

func TestMirrorTimeoutDefaultsToInterval(t *testing.T) {
	q := queue.New()
	h := NewHub()
	m := &stallingMirror{errs: make(chan error, 1)}
	br := NewBroadcaster(q, h, 20*time.Millisecond, WithMirror(m))

	q.Enqueue(domain.NewSpawnEnemy("Wisp", domain.SenderChat))
	start := time.Now()
	br.Flush(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, <-m.errs, context.DeadlineExceeded)
}

func TestRunDeliversUntilCancelled(t *testing.T) {
	q := queue.New()
	h := NewHub()
	sub := newFake("r")
	h.Register(sub)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		NewBroadcaster(q, h, 10*time.Millisecond).Run(ctx)
		close(stopped)
	}()

	q.Enqueue(domain.NewLikeCountUpdate(1))
	require.Eventually(t, func() bool { return len(sub.received()) == 1 }, time.Second, 5*time.Millisecond)

	q.Enqueue(domain.NewLikeCountUpdate(2))
	require.Eventually(t, func() bool { return len(sub.received()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("broadcast loop did not stop")
	}
}
