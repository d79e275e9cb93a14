// Package queue buffers spawn commands between the rule engine and the
// broadcast loop.
//
// The queue is unbounded: producers never block and a slow consumer costs
// memory instead. Spawn traffic is small and bursty, so that trade is fine.
package queue

import (
	"sync"

	"github.com/weiawesome/wes-io-live/spawn-service/internal/domain"
)

// Queue is a FIFO of spawn commands safe for many producers and one consumer.
type Queue struct {
	mu      sync.Mutex
	pending []domain.SpawnCommand
}

func New() *Queue {
	return &Queue{}
}

// Enqueue appends cmd. It never blocks on the consumer.
func (q *Queue) Enqueue(cmd domain.SpawnCommand) {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()
}

// DrainAll returns every queued command in enqueue order and empties the queue.
// It returns nil when nothing is pending.
func (q *Queue) DrainAll() []domain.SpawnCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	drained := q.pending
	q.pending = nil
	return drained
}

// Len reports how many commands are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
