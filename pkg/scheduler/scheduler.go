package scheduler

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/flier/corestone/internal/debug"
	"github.com/flier/corestone/pkg/tuple"
)

// Scheduler is a multi-goroutine, work-stealing task engine: callers
// register [Workgroup]s via [Scheduler.CreateGroup], start it with
// [Scheduler.BeginExecution], submit [WorkItem]s with the Submit* methods,
// and tear it down with [Scheduler.EndExecution].
//
// A Scheduler is configured (CreateGroup) before BeginExecution and driven
// afterwards from the goroutine that called BeginExecution, worker 0.
// Calling CreateGroup after BeginExecution, or BeginExecution a second
// time, is a programming error; restart is unsupported, build a new
// Scheduler instead.
type Scheduler struct {
	mu     sync.Mutex
	groups map[GroupID]*Workgroup

	workers []*worker

	stop     atomic.Bool
	draining atomic.Bool
	started  atomic.Bool

	entryDone sync.WaitGroup
	workerWG  sync.WaitGroup
}

// New returns an empty, unconfigured Scheduler. Call [Scheduler.CreateGroup]
// one or more times before [Scheduler.BeginExecution].
func New() *Scheduler {
	return &Scheduler{groups: make(map[GroupID]*Workgroup)}
}

// CreateGroup registers (or resizes, if called again for the same id) a
// workgroup spanning worker indices [startWorker, startWorker+workerCount)
// with the given static priority. Must be called before
// [Scheduler.BeginExecution]; the highest startWorker+workerCount across
// all registered groups determines the scheduler's total worker count.
func (s *Scheduler) CreateGroup(id GroupID, startWorker, workerCount, priority int) {
	debug.Assert(!s.started.Load(), "scheduler: CreateGroup called after BeginExecution")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups[id] = newWorkgroup(id, startWorker, workerCount, priority)
}

func (s *Scheduler) group(id GroupID) (*Workgroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	return g, ok
}

// BeginExecution builds per-worker state, spawns one goroutine per worker
// beyond worker 0, and runs entryFn on every worker (worker 0 synchronously
// on the calling goroutine, the rest on their own spawned goroutines)
// before returning. userContext is stashed on every [WorkerContext] the
// scheduler builds and handed back verbatim through
// [WorkerContext.UserContext].
func (s *Scheduler) BeginExecution(entryFn EntryFunc, userContext any) {
	debug.Assert(!s.started.Load(), "scheduler: BeginExecution called twice (restart unsupported)")
	debug.Assert(len(s.groups) > 0, "scheduler: BeginExecution called with no workgroups registered")

	if entryFn == nil {
		entryFn = func(*WorkerContext) {}
	}

	workerCount := 0
	for _, g := range s.groups {
		if end := g.StartWorker + g.WorkerCount; end > workerCount {
			workerCount = end
		}
	}

	s.workers = make([]*worker, workerCount)
	for i := range s.workers {
		s.workers[i] = newWorker(WorkerID(i))
		s.workers[i].seedSteal(s)
	}

	s.buildGroupRanges(userContext)

	s.started.Store(true)
	s.entryDone.Add(workerCount)

	for i := 1; i < workerCount; i++ {
		w := s.workers[i]

		s.workerWG.Add(1)
		go func() {
			defer s.workerWG.Done()
			w.run(s, entryFn, &s.entryDone)
		}()
	}

	// Worker 0 only runs entryFn here, synchronously; it joins the drain
	// loop later, inside EndExecution, rather than the full worker loop.
	// Worker 0 is the caller, not a spawned goroutine, and must be free to
	// return to its caller.
	w0 := s.workers[0]
	currentWorkerTLS.Set(&currentWorker{sched: s, w: w0})
	entryFn(w0.anyContext())
	s.entryDone.Done()

	s.entryDone.Wait()
}

// buildGroupRanges constructs each worker's group range (memberships
// sorted descending by priority, ascending group id as tiebreak) and the
// WorkerContext each (worker, group) pair observes.
func (s *Scheduler) buildGroupRanges(userContext any) {
	type candidate struct {
		group      *Workgroup
		localIndex int
	}

	perWorker := make([][]candidate, len(s.workers))
	for _, g := range s.groups {
		for i := 0; i < g.WorkerCount; i++ {
			wid := g.StartWorker + i
			perWorker[wid] = append(perWorker[wid], candidate{group: g, localIndex: i})
		}
	}

	for wid, cands := range perWorker {
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].group.Priority != cands[b].group.Priority {
				return cands[a].group.Priority > cands[b].group.Priority
			}
			return cands[a].group.ID < cands[b].group.ID
		})

		w := s.workers[wid]
		w.groups = make([]groupBinding, len(cands))

		var mask uint64
		for _, c := range cands {
			if c.group.ID < 64 {
				mask |= uint64(1) << uint(c.group.ID)
			}
		}
		w.groupMask = mask

		for i, c := range cands {
			w.groups[i] = groupBinding{
				group:   c.group,
				binding: tuple.NewPair(c.group.ID, c.localIndex),
				ctx: WorkerContext{
					Scheduler:   s,
					Worker:      w.id,
					Group:       c.group.ID,
					GroupMask:   mask,
					UserContext: userContext,
				},
			}
		}
	}
}

// TakeOwnership binds the calling goroutine to worker 0, setting its
// goroutine-local identity so [ThisWorkerID] and [ContextFor] resolve
// correctly. Used when the Scheduler was built on one goroutine (e.g. by
// BeginExecution) but is driven from another goroutine, which submits work
// and eventually calls EndExecution.
func (s *Scheduler) TakeOwnership() {
	currentWorkerTLS.Set(&currentWorker{sched: s, w: s.workers[0]})
}

// EndExecution drains every workgroup queue and every worker's exclusive
// queue, executing drained items on the calling goroutine via worker 0's
// local slot and steal path, then signals stop and joins every spawned
// worker goroutine. It returns only once every work item submitted before
// it was called has run.
func (s *Scheduler) EndExecution() {
	s.draining.Store(true)
	defer s.draining.Store(false)

	w0 := s.workers[0]

	for !s.allQueuesEmpty() {
		s.wakeWorkersWithPendingWork()

		if item := w0.localWork.Swap(nil); item != nil {
			s.runItem(w0, *item)
		}

		for {
			item, ok := s.getWork(w0)
			if !ok {
				break
			}
			s.runItem(w0, item)
		}

		runtime.Gosched()
	}

	s.stop.Store(true)

	for i := 1; i < len(s.workers); i++ {
		w := s.workers[i]
		for !w.quitting.Load() {
			w.wake.Wake()
			runtime.Gosched()
		}
	}

	s.workerWG.Wait()
}

func (s *Scheduler) allQueuesEmpty() bool {
	for _, g := range s.groups {
		for _, q := range g.queues {
			if !q.empty() {
				return false
			}
		}
	}

	for _, w := range s.workers {
		if !w.exclusive.empty() {
			return false
		}
		if w.localWork.Load() != nil {
			return false
		}
	}

	return true
}

func (s *Scheduler) wakeWorkersWithPendingWork() {
	for _, g := range s.groups {
		for i, q := range g.queues {
			if !q.empty() {
				s.workers[g.StartWorker+i].wake.Wake()
			}
		}
	}

	for _, w := range s.workers {
		if !w.exclusive.empty() {
			// Other workers reach exclusive-queue work only by stealing it,
			// and a parked worker never steals, so wake every worker.
			for _, other := range s.workers {
				other.wake.Wake()
			}
			return
		}
	}
}

// WorkerCount returns the total number of workers determined by the last
// call to [Scheduler.BeginExecution] (0 before it has been called).
func (s *Scheduler) WorkerCount() int { return len(s.workers) }

// HelpWhileWaiting lets worker w make forward progress on other queued work
// while blocked on some external condition (signaled by the closing of
// done) instead of idling and holding up the pool's only finitely many
// worker loops. It generalizes the "run drained items on the calling
// goroutine" technique of [Scheduler.EndExecution]'s drain loop to any
// blocking wait issued from inside a running [WorkItem]. [pkg/scheduler/task]
// uses this so that a task awaiting a child it just submitted does not
// simply occupy its worker slot: it keeps draining work, which may well
// turn out to be the very child it is waiting on.
func (s *Scheduler) HelpWhileWaiting(w WorkerID, done <-chan struct{}) {
	wk := s.workers[w]

	for {
		select {
		case <-done:
			return
		default:
		}

		// Worker 0 never runs [worker.run]'s loop, the one place that
		// otherwise drains a worker's single-slot local_work fast path, so
		// a submission that claimed w0's slot via [xsync.WakeData.TryArm]
		// before EndExecution's drain starts would sit there forever unless
		// HelpWhileWaiting checks it too, the same way EndExecution's own
		// drain loop does.
		if item := wk.localWork.Swap(nil); item != nil {
			s.runItem(wk, *item)
			continue
		}

		item, ok := s.getWork(wk)
		if !ok {
			runtime.Gosched()
			continue
		}

		s.runItem(wk, item)
	}
}
