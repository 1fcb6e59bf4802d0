package report

import (
	"context"
	"sync"
)

// Queue is the bounded buffer between the control loop and the
// reporter. Push never blocks; when full the oldest batch is dropped
// so a stalled sink cannot delay the next poll cycle.
type Queue struct {
	mu      sync.Mutex
	items   []Batch
	max     int
	notify  chan struct{}
	dropped uint64
}

func NewQueue(max int) *Queue {
	if max <= 0 {
		max = 16
	}
	return &Queue{max: max, notify: make(chan struct{}, 1)}
}

// Push enqueues a batch, evicting the oldest one on overflow. Returns
// true when an eviction happened.
func (q *Queue) Push(b Batch) bool {
	q.mu.Lock()
	evicted := false
	if len(q.items) >= q.max {
		q.items = q.items[1:]
		q.dropped++
		evicted = true
	}
	q.items = append(q.items, b)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return evicted
}

// Pop blocks until a batch is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (Batch, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			b := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return b, true
		}
		q.mu.Unlock()
		select {
		case <-q.notify:
		case <-ctx.Done():
			return Batch{}, false
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// DroppedOnOverflow returns how many batches were evicted unsent.
func (q *Queue) DroppedOnOverflow() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
