package chat

import "sync"

// KeyedQueue serializes work per key: at most one function runs for a given
// key at a time, in FIFO arrival order. Events for the same conversation must
// not interleave mid-step (two near-simultaneous file sends could both resolve
// the same document slot), so every inbound event goes through this queue.
type KeyedQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

// NewKeyedQueue creates an empty queue.
func NewKeyedQueue() *KeyedQueue {
	return &KeyedQueue{tails: make(map[string]chan struct{})}
}

// Do runs fn after all previously enqueued functions for key have finished.
// Blocks the calling goroutine until fn returns.
func (q *KeyedQueue) Do(key string, fn func()) {
	done := make(chan struct{})

	q.mu.Lock()
	prev := q.tails[key]
	q.tails[key] = done
	q.mu.Unlock()

	if prev != nil {
		<-prev
	}

	defer func() {
		close(done)
		q.mu.Lock()
		if q.tails[key] == done {
			delete(q.tails, key)
		}
		q.mu.Unlock()
	}()

	fn()
}
