package group

import (
	"sync"
	"time"
)

type jobLine struct {
	job   int
	state *jobState
	line  string
}

// lineQueue is an unbounded multi-producer queue. Producers never block,
// so a slow consumer cannot stall the supervision loop of an executor.
type lineQueue struct {
	mu     sync.Mutex
	items  []jobLine
	notify chan struct{}
}

func newLineQueue() *lineQueue {
	return &lineQueue{notify: make(chan struct{}, 1)}
}

func (q *lineQueue) Put(item jobLine) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// TryGet pops the oldest item without blocking.
func (q *lineQueue) TryGet() (jobLine, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return jobLine{}, false
	}

	item := q.items[0]
	q.items[0] = jobLine{}
	q.items = q.items[1:]

	return item, true
}

// Get pops the oldest item, waiting up to timeout for one to arrive.
func (q *lineQueue) Get(timeout time.Duration) (jobLine, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if item, ok := q.TryGet(); ok {
			return item, true
		}

		select {
		case <-q.notify:
		case <-timer.C:
			return q.TryGet()
		}
	}
}

func (q *lineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
