package scheduler

import (
	"sync/atomic"

	"github.com/flier/corestone/internal/xsync"
)

// queue is a lock-guarded FIFO deque of [WorkItem], the building block for
// both a [Workgroup]'s per-worker queues and a worker's exclusive queue.
// It is a slice-backed ring buffer rather than a Go channel: channels have
// no TryLock-equivalent non-blocking push/pop pair, which the scheduler's
// try-lock-first discipline requires throughout the steal path.
type queue struct {
	lock xsync.SpinLock
	buf  []WorkItem
	head int
	size int

	// count is a best-effort length snapshot, updated under lock but read
	// without it by the end-execution drain loop, which only needs to know
	// "probably nonempty" to decide whether to keep polling.
	count atomic.Int64
}

func newQueue() *queue {
	return &queue{buf: make([]WorkItem, 8)}
}

// TryLock attempts to acquire the queue's lock without blocking.
func (q *queue) TryLock() bool { return q.lock.TryLock() }

// Lock acquires the queue's lock, spinning until it succeeds. Used by the
// forced-enqueue fallback and by SubmitToWorker's exclusive-queue push.
func (q *queue) Lock() { q.lock.Lock() }

// Unlock releases the queue's lock. Callers must have acquired it via
// TryLock or Lock.
func (q *queue) Unlock() { q.lock.Unlock() }

// pushBack appends item to the tail. The caller must hold the lock.
func (q *queue) pushBack(item WorkItem) {
	if q.size == len(q.buf) {
		q.grow()
	}

	tail := (q.head + q.size) % len(q.buf)
	q.buf[tail] = item
	q.size++
	q.count.Add(1)
}

// popFront removes and returns the head item, if any. The caller must hold
// the lock.
func (q *queue) popFront() (WorkItem, bool) {
	if q.size == 0 {
		return WorkItem{}, false
	}

	item := q.buf[q.head]
	q.buf[q.head] = WorkItem{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.count.Add(-1)

	return item, true
}

func (q *queue) grow() {
	next := make([]WorkItem, len(q.buf)*2)
	for i := 0; i < q.size; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}

// empty reports an approximate emptiness snapshot, taken without the lock.
// Used by [Scheduler.EndExecution]'s drain loop, which re-polls repeatedly
// and only needs an eventually-consistent view.
func (q *queue) empty() bool { return q.count.Load() == 0 }
