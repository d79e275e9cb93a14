package rules

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/catalog"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/selector"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/status"
)

// DefaultMaxComboCount caps how many spawns a single gift event may produce.
const DefaultMaxComboCount = 1000

// Sink receives spawn commands in the order the engine produces them.
type Sink interface {
	Enqueue(cmd domain.SpawnCommand)
}

// Thresholds are the like counts between two spawns of each kind.
type Thresholds struct {
	Enemy int64
	Boss  int64
	Item  int64
}

// Validate checks that every threshold is positive.
func (t Thresholds) Validate() error {
	if t.Enemy <= 0 || t.Boss <= 0 || t.Item <= 0 {
		return fmt.Errorf("thresholds must be positive, got enemy=%d boss=%d item=%d", t.Enemy, t.Boss, t.Item)
	}
	return nil
}

// state is the cumulative like counter and the total at which each kind last fired.
// Invariant: every mark <= totalLikes.
type state struct {
	totalLikes int64
	enemyMark  int64
	bossMark   int64
	itemMark   int64
}

// Engine turns engagement events into spawn commands.
type Engine struct {
	mu         sync.Mutex
	state      state
	thresholds Thresholds
	catalog    *catalog.Catalog
	sink       Sink
	rng        *rand.Rand
	status     status.Hook
	maxCombo   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand makes random picks deterministic. The source is only used under
// the engine lock.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithStatusHook replaces the default status logger.
func WithStatusHook(h status.Hook) Option {
	return func(e *Engine) { e.status = h }
}

// WithMaxComboCount overrides DefaultMaxComboCount. Non-positive values are ignored.
func WithMaxComboCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCombo = n
		}
	}
}

// New creates an engine that pushes its commands to sink.
func New(thresholds Thresholds, cat *catalog.Catalog, sink Sink, opts ...Option) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if sink == nil {
		return nil, fmt.Errorf("rules: nil sink")
	}

	e := &Engine{
		thresholds: thresholds,
		catalog:    cat,
		sink:       sink,
		status:     status.Log,
		maxCombo:   DefaultMaxComboCount,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Handle applies one event and returns the commands it produced, which have
// already been pushed to the sink. Events are applied one at a time; the
// commands of one event reach the sink before those of any later event.
func (e *Engine) Handle(ctx context.Context, ev domain.EngagementEvent) ([]domain.SpawnCommand, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		cmds []domain.SpawnCommand
		err  error
	)

	switch ev := ev.(type) {
	case domain.ConnectEvent:
		e.status(ctx, zerolog.InfoLevel, status.ActionConnect,
			fmt.Sprintf("Connected to @%s (Room ID: %s)", ev.StreamerID, ev.RoomID))
		return nil, nil

	case domain.LikeEvent:
		cmds, err = e.applyLikes(ctx, ev)

	case domain.GiftEvent:
		cmds, err = e.applyGift(ctx, ev)

	default:
		err = fmt.Errorf("%w: unsupported event type %T", domain.ErrInvalidEvent, ev)
	}

	if err != nil {
		e.status(ctx, zerolog.WarnLevel, status.ActionRejected, err.Error())
		return nil, err
	}

	for _, cmd := range cmds {
		e.status(ctx, zerolog.DebugLevel, status.ActionEnqueue, fmt.Sprintf("Enqueuing event: %s %s from %s", cmd.Kind, describe(cmd), cmd.Sender))
		e.sink.Enqueue(cmd)
	}
	return cmds, nil
}

func (e *Engine) applyLikes(ctx context.Context, ev domain.LikeEvent) ([]domain.SpawnCommand, error) {
	if ev.Count < 0 {
		return nil, fmt.Errorf("%w: negative like count %d", domain.ErrInvalidEvent, ev.Count)
	}

	s := &e.state
	s.totalLikes += ev.Count
	e.status(ctx, zerolog.InfoLevel, status.ActionLikes,
		fmt.Sprintf("Received %d likes! Total: %d", ev.Count, s.totalLikes))

	cmds := []domain.SpawnCommand{domain.NewLikeCountUpdate(s.totalLikes)}

	// Marks jump to the current total, so one oversized batch yields at most
	// one spawn per kind.
	if s.totalLikes-s.enemyMark >= e.thresholds.Enemy {
		s.enemyMark = s.totalLikes
		name, err := selector.Uniform(e.rng, e.catalog.Monsters())
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, domain.NewSpawnEnemy(name, domain.SenderChat))
	}

	if s.totalLikes-s.bossMark >= e.thresholds.Boss {
		s.bossMark = s.totalLikes
		name, err := selector.Uniform(e.rng, e.catalog.Bosses())
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, domain.NewSpawnBoss(name, domain.SenderChat))
	}

	if s.totalLikes-s.itemMark >= e.thresholds.Item {
		s.itemMark = s.totalLikes
		tier, err := selector.Pick(e.rng, e.catalog.ItemTiers())
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, domain.NewSpawnItem(tier, domain.SenderChat))
	}

	return cmds, nil
}

func (e *Engine) applyGift(ctx context.Context, ev domain.GiftEvent) ([]domain.SpawnCommand, error) {
	if ev.ComboCount < 0 {
		return nil, fmt.Errorf("%w: negative combo count %d for %q", domain.ErrInvalidEvent, ev.ComboCount, ev.GiftName)
	}
	if ev.ComboCount > e.maxCombo {
		return nil, fmt.Errorf("%w: combo count %d for %q exceeds %d", domain.ErrInvalidEvent, ev.ComboCount, ev.GiftName, e.maxCombo)
	}

	e.status(ctx, zerolog.InfoLevel, status.ActionGift,
		fmt.Sprintf("%s sent %d \"%s\"(s)", ev.SenderID, ev.ComboCount, ev.GiftName))

	var spawn func() domain.SpawnCommand
	if monster, ok := e.catalog.GiftMonster(ev.GiftName); ok {
		spawn = func() domain.SpawnCommand { return domain.NewSpawnEnemy(monster, ev.SenderID) }
	} else if tier, ok := e.catalog.GiftItem(ev.GiftName); ok {
		spawn = func() domain.SpawnCommand { return domain.NewSpawnItem(tier, ev.SenderID) }
	} else {
		return nil, nil
	}

	var cmds []domain.SpawnCommand
	for i := 0; i < ev.ComboCount; i++ {
		cmds = append(cmds, spawn())
	}
	return cmds, nil
}

func describe(cmd domain.SpawnCommand) string {
	if cmd.Kind == domain.KindLikeCount {
		return fmt.Sprintf("%d", cmd.Total)
	}
	return cmd.Name
}
