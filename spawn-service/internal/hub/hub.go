package hub

import (
	"sync"

	"github.com/weiawesome/wes-io-live/pkg/log"
	"github.com/weiawesome/wes-io-live/spawn-service/internal/status"
)

// Subscriber is one connected renderer.
type Subscriber interface {
	ID() string
	Write(data []byte) error
	Close() error
}

// Hub is the set of live renderer subscribers.
type Hub struct {
	clients map[string]Subscriber // clientID -> subscriber
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]Subscriber),
	}
}

// Register adds a subscriber after a successful handshake.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	h.clients[sub.ID()] = sub
	count := len(h.clients)
	h.mu.Unlock()

	l := log.L()
	l.Info().
		Str(log.FieldLogType, log.LogTypeStatus).
		Str(status.FieldAction, status.ActionSubscribe).
		Str(log.FieldClientID, sub.ID()).
		Int(log.FieldSubscribers, count).
		Msg("renderer registered")
}

// Unregister removes and closes a subscriber. Removing an absent subscriber
// is a no-op, so read failures and write failures may both call it.
func (h *Hub) Unregister(sub Subscriber) {
	h.mu.Lock()
	current, ok := h.clients[sub.ID()]
	if ok && current == sub {
		delete(h.clients, sub.ID())
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok || current != sub {
		return
	}

	if err := sub.Close(); err != nil {
		l := log.L()
		l.Debug().Err(err).Str(log.FieldClientID, sub.ID()).Msg("renderer close error")
	}

	l := log.L()
	l.Info().
		Str(log.FieldLogType, log.LogTypeStatus).
		Str(status.FieldAction, status.ActionUnsubscribe).
		Str(log.FieldClientID, sub.ID()).
		Int(log.FieldSubscribers, count).
		Msg("renderer unregistered")
}

// Snapshot returns the current subscribers. The slice is safe to iterate
// while others register or leave.
func (h *Hub) Snapshot() []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := make([]Subscriber, 0, len(h.clients))
	for _, sub := range h.clients {
		subs = append(subs, sub)
	}
	return subs
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unregisters every subscriber.
func (h *Hub) Close() {
	for _, sub := range h.Snapshot() {
		h.Unregister(sub)
	}
}
