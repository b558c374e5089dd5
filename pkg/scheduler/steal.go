package scheduler

import (
	"runtime"
	"time"

	"github.com/dolthub/maphash"

	"github.com/flier/corestone/internal/debug"
)

// MaxStealAttempts bounds the total number of victims (each costing up to
// two try-locks: its workgroup queue, then its exclusive queue) a single
// [Scheduler.getWork] call will attempt across all of a worker's
// workgroups, regardless of how many groups it belongs to. It is a package
// variable rather than a constant so a benchmark run can tune it from a
// flag (the -steal-attempts flag in this package's benchmarks); ordinary
// callers leave it at its default.
var MaxStealAttempts = 8

// Adaptive-backoff thresholds. The exact values matter less than the
// shape: the delay grows with failures and staleness, capped, and
// escalates to a real yield past a threshold.
const (
	highFailureThreshold   = 10
	mediumFailureThreshold = 5
	backoffCapPauses       = 256
)

// stealState is the per-worker bookkeeping for randomized victim selection
// and adaptive backoff. It is touched only by the goroutine that owns the
// worker, so it needs no synchronization of its own.
type stealState struct {
	rng         uint64 // xorshift64 state, seeded once from (scheduler, worker id)
	failures    int
	streak      int
	lastSuccess time.Time
}

type stealSeedKey struct {
	sched *Scheduler
	id    WorkerID
}

var stealSeedHasher = maphash.NewHasher[stealSeedKey]()

// seedSteal seeds w's victim-selection generator by hashing the
// (scheduler instance, worker id) pair through [maphash.Hasher], giving
// each worker an independent, reproducible-per-run starting point without
// a shared global PRNG that every worker would contend on.
func (w *worker) seedSteal(s *Scheduler) {
	w.steal.rng = stealSeedHasher.Hash(stealSeedKey{sched: s, id: w.id}) | 1
	w.steal.lastSuccess = time.Now()
}

// next advances the xorshift64 generator and returns the new state.
func (st *stealState) next() uint64 {
	x := st.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	st.rng = x
	return x
}

func (st *stealState) onSuccess(w WorkerID) {
	st.failures = 0
	st.streak++
	st.lastSuccess = time.Now()

	debug.Log([]any{"worker %d", w}, "steal success", "streak now %d", st.streak)
}

func (st *stealState) onFailure(w WorkerID) {
	st.failures++
	st.streak = 0

	debug.Log([]any{"worker %d", w}, "steal failure", "failures now %d", st.failures)
}

// backoff applies the adaptive delay: the pause grows with recent
// failures, capped, and the worker yields its goroutine's turn outright
// once failures or staleness since the last successful steal cross a
// threshold, rather than spinning indefinitely.
func (st *stealState) backoff() {
	if st.failures >= highFailureThreshold ||
		(st.streak == 0 && time.Since(st.lastSuccess) > time.Millisecond) {
		runtime.Gosched()
		return
	}

	n := st.failures * st.failures
	if st.failures >= mediumFailureThreshold {
		n *= 4
	}
	if n > backoffCapPauses {
		n = backoffCapPauses
	}

	pause(n)
}

// pause spins n iterations of a tight yield loop. Go exposes no portable
// user-space access to the CPU pause instruction without cgo or assembly,
// so each iteration cedes the goroutine's turn instead.
func pause(n int) {
	for i := 0; i < n; i++ {
		runtime.Gosched()
	}
}

// getWork is the hot path: owned workgroup queues in priority order, then
// w's exclusive queue, then randomized work-stealing across w's workgroups
// in priority order, bounded by MaxStealAttempts.
func (s *Scheduler) getWork(w *worker) (WorkItem, bool) {
	for _, gb := range w.groups {
		q := gb.group.queueFor(gb.localIndex())
		if !q.TryLock() {
			continue
		}

		item, ok := q.popFront()
		q.Unlock()

		if ok {
			w.steal.onSuccess(w.id)
			return item, true
		}
	}

	if w.exclusive.TryLock() {
		item, ok := w.exclusive.popFront()
		w.exclusive.Unlock()

		if ok {
			w.steal.onSuccess(w.id)
			return item, true
		}
	}

	return s.steal(w)
}

// tryStealFrom attempts a single non-blocking pop from q, the shape every
// steal attempt against a victim's queue shares regardless of whether that
// queue is a workgroup slot or an exclusive mailbox.
func (s *Scheduler) tryStealFrom(q *queue) (WorkItem, bool) {
	if !q.TryLock() {
		return WorkItem{}, false
	}

	item, ok := q.popFront()
	q.Unlock()

	return item, ok
}

// steal is the randomized victim-selection loop.
func (s *Scheduler) steal(w *worker) (WorkItem, bool) {
	attempts := 0

	for _, gb := range w.groups {
		g := gb.group
		if g.WorkerCount <= 1 {
			continue
		}

		start := int(w.steal.next() % uint64(g.WorkerCount))
		visit := (g.WorkerCount + 1) / 2

		for i := 0; i < visit && attempts < MaxStealAttempts; i++ {
			victim := (start + i) % g.WorkerCount
			if victim == gb.localIndex() {
				continue
			}

			attempts++

			if item, ok := s.tryStealFrom(g.queueFor(victim)); ok {
				w.steal.onSuccess(w.id)
				return item, true
			}

			// A victim's exclusive queue is its point-to-point mailbox, not
			// itself a member of any workgroup's queue array. But a victim
			// that never wakes up to drain its own mailbox (e.g. every other
			// worker is still idle) would strand that work forever, which
			// defeats the whole point of stealing; raid it here, after the
			// owning workgroup's own queue comes up empty. Stealing only
			// removes items, so the FIFO order the owner itself observes is
			// unchanged.
			if item, ok := s.tryStealFrom(s.workers[g.StartWorker+victim].exclusive); ok {
				w.steal.onSuccess(w.id)
				return item, true
			}

			w.steal.onFailure(w.id)
			if attempts > 3 {
				w.steal.backoff()
			}
		}

		if attempts >= MaxStealAttempts {
			break
		}
	}

	return WorkItem{}, false
}
