package scheduler

import "github.com/flier/corestone/internal/debug"

// SubmitToGroup submits item to any worker of group: first preference is
// waking a sleeping worker directly via its single-slot local_work fast
// path; failing that, round-robin across the group's per-worker queues
// under try-lock; on total contention, force a lock acquisition on queue 0
// so the submission is never lost.
func (s *Scheduler) SubmitToGroup(srcWorker WorkerID, group GroupID, item WorkItem) {
	debug.Assert(!s.draining.Load(), "scheduler: SubmitToGroup racing EndExecution's drain")

	g, ok := s.group(group)
	debug.Assert(ok, "scheduler: SubmitToGroup on unconfigured workgroup %d", group)
	if !ok {
		return
	}

	item = WithGroup(item, group)

	for i := 0; i < g.WorkerCount; i++ {
		w := s.workers[g.StartWorker+i]
		if w.wake.TryArm() {
			w.localWork.Store(&item)
			w.wake.Wake()
			return
		}
	}

	offset := int(g.pushOffset.Add(1) - 1)
	for i := 0; i < g.WorkerCount; i++ {
		idx := (offset + i) % g.WorkerCount
		q := g.queueFor(idx)
		if q.TryLock() {
			q.pushBack(item)
			q.Unlock()
			s.workers[g.StartWorker+idx].wake.Wake()
			return
		}
	}

	// Forced fallback: every queue in the group was contended. Block on
	// queue 0's lock rather than fail the submission.
	q := g.queueFor(0)
	q.Lock()
	q.pushBack(item)
	q.Unlock()
	s.workers[g.StartWorker].wake.Wake()
}

// SubmitToWorker submits item point-to-point: if srcWorker equals
// dstWorker, item runs inline on the calling goroutine; otherwise it is
// pushed onto dstWorker's exclusive queue and that worker is woken.
func (s *Scheduler) SubmitToWorker(srcWorker, dstWorker WorkerID, item WorkItem) {
	debug.Assert(!s.draining.Load(), "scheduler: SubmitToWorker racing EndExecution's drain")

	w := s.workers[dstWorker]

	if srcWorker == dstWorker {
		s.runItem(w, item)
		return
	}

	w.exclusive.Lock()
	w.exclusive.pushBack(item)
	w.exclusive.Unlock()
	w.wake.Wake()
}

// SubmitToWorkerInGroup is the variant that additionally records group in
// item's compressed payload while still routing via dstWorker's exclusive
// queue, so the item runs under group's WorkerContext when dstWorker is a
// member of group.
func (s *Scheduler) SubmitToWorkerInGroup(srcWorker, dstWorker WorkerID, group GroupID, item WorkItem) {
	s.SubmitToWorker(srcWorker, dstWorker, WithGroup(item, group))
}

// runItem resolves the WorkerContext item should observe (the one matching
// its compressed-payload group, or w's highest-priority context if no
// match) and invokes it.
func (s *Scheduler) runItem(w *worker, item WorkItem) {
	ctx, ok := w.contextFor(item.Group())
	if !ok {
		ctx = w.anyContext()
	}
	item.run(ctx)
}
