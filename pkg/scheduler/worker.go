package scheduler

import (
	"sync"
	"sync/atomic"

	"github.com/flier/corestone/internal/xsync"
	"github.com/flier/corestone/pkg/tuple"
)

// groupBinding is one entry of a worker's group range: the [Workgroup]
// this worker belongs to, a (group id, local index) [tuple.Pair] giving
// its position within that group's per-worker queue array, and the
// pre-built [WorkerContext] task bodies see while running under that
// group. A worker's []groupBinding is sorted descending by priority,
// ascending group id as tiebreak, so a slice of structs carries both the
// membership ordering and the per-entry payload in one place.
type groupBinding struct {
	group   *Workgroup
	binding tuple.Pair[GroupID, int]
	ctx     WorkerContext
}

func (gb groupBinding) localIndex() int { return gb.binding.V1 }

// worker is the per-goroutine state backing one scheduler worker. Worker 0
// is always the goroutine that called
// [Scheduler.BeginExecution]; workers 1..N-1 each run on a goroutine
// BeginExecution spawns.
type worker struct {
	id        WorkerID
	exclusive *queue
	groups    []groupBinding // sorted: descending priority, ascending group id
	groupMask uint64

	localWork atomic.Pointer[WorkItem]
	quitting  atomic.Bool
	wake      *xsync.WakeData

	steal stealState
}

func newWorker(id WorkerID) *worker {
	return &worker{id: id, exclusive: newQueue(), wake: xsync.NewWakeData()}
}

// contextFor returns the pre-built WorkerContext for group, if w is a
// member of it.
func (w *worker) contextFor(group GroupID) (*WorkerContext, bool) {
	for i := range w.groups {
		if w.groups[i].group.ID == group {
			return &w.groups[i].ctx, true
		}
	}

	return nil, false
}

// anyContext returns some WorkerContext for w, the highest-priority one,
// used for EntryFunc invocations and for running work items whose
// compressed-payload group id does not match any of w's memberships.
// Falls back to a bare, group-less context if w belongs to none.
func (w *worker) anyContext() *WorkerContext {
	if len(w.groups) == 0 {
		return &WorkerContext{Worker: w.id}
	}

	return &w.groups[0].ctx
}

// run is the worker loop body: set the goroutine-local worker identity,
// call entryFn once and report readiness on started, then
// alternate between draining inbound work and parking on the wake
// semaphore until the scheduler signals stop.
func (w *worker) run(s *Scheduler, entryFn EntryFunc, started *sync.WaitGroup) {
	currentWorkerTLS.Set(&currentWorker{sched: s, w: w})
	defer currentWorkerTLS.Set(nil)

	entryFn(w.anyContext())
	started.Done()

	for {
		if item := w.localWork.Swap(nil); item != nil {
			s.runItem(w, *item)
		}

		for {
			item, ok := s.getWork(w)
			if !ok {
				break
			}
			s.runItem(w, item)
		}

		if s.stop.Load() {
			break
		}

		w.wake.Disarm()
		w.wake.Wait()
	}

	w.quitting.Store(true)
}
