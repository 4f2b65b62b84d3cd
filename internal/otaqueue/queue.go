// Package otaqueue implements the bounded single-consumer request queue
// that sits between Notice Intake and the OTA Worker.
package otaqueue

import (
	"sync"

	"otaagent/internal/otatypes"
)

// Capacity is the fixed number of slots in the ring. Pinned by the spec:
// the control plane re-announces the desired version on reconnect, so a
// lossy bounded queue is an acceptable tradeoff for a single-consumer agent.
const Capacity = 3

// Queue is a fixed-capacity ring buffer of otatypes.UpdateRequest. Enqueue
// never blocks: when full it overwrites the slot at wpos (the oldest
// unconsumed request is dropped). Dequeue blocks until an item is
// available. Producers may call Enqueue from any goroutine; Dequeue has
// exactly one caller (the Worker).
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	slots [Capacity]otatypes.UpdateRequest
	wpos  int
	rpos  int
	count int
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue writes req into the slot at wpos and advances wpos modulo
// Capacity. If the queue is already full, the slot being overwritten is
// cleared first so its previous string payload is released rather than
// leaked (the source this queue is modeled on does not do this; it is
// fixed here).
func (q *Queue) Enqueue(req otatypes.UpdateRequest) {
	q.mu.Lock()
	q.slots[q.wpos] = otatypes.UpdateRequest{}
	q.slots[q.wpos] = req
	wasFull := q.count == Capacity
	q.wpos = (q.wpos + 1) % Capacity
	if wasFull {
		// The oldest unconsumed slot was just overwritten with req; advance
		// rpos past it so the next Dequeue returns the oldest surviving
		// request rather than the one just written, and count stays at
		// Capacity.
		q.rpos = q.wpos
	} else {
		q.count++
	}
	q.mu.Unlock()
	q.cond.Signal()
}

// Dequeue blocks until a request is available, then returns it by value
// and advances rpos modulo Capacity. The caller (the Worker) owns the
// returned request's strings for the remainder of its processing loop.
func (q *Queue) Dequeue() otatypes.UpdateRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count == 0 {
		q.cond.Wait()
	}
	req := q.slots[q.rpos]
	q.slots[q.rpos] = otatypes.UpdateRequest{}
	q.rpos = (q.rpos + 1) % Capacity
	q.count--
	return req
}

// Len reports how many requests are currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
