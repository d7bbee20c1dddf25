package adapter

import "sync"

// queue is an unbounded multi-producer FIFO. push never blocks, so the UI
// thread can post events while it is also the consumer.
type queue struct {
	mu    sync.Mutex
	items []Event
	ready chan struct{}
}

func newQueue(hint int) *queue {
	return &queue{items: make([]Event, 0, hint), ready: make(chan struct{}, 1)}
}

func (q *queue) push(ev Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.signal()
}

// signal leaves at most one wake-up token in ready.
func (q *queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop removes the oldest event.
func (q *queue) pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	ev := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return ev, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
