package scheduler

import "github.com/timandy/routine"

// WorkerContext is the handle a running [WorkItem] receives: a reference to
// the owning [Scheduler], the calling worker's id, the [Workgroup] this
// particular run was dispatched under, a bitmask of every workgroup this
// worker participates in, and the opaque UserContext supplied to
// [Scheduler.BeginExecution].
type WorkerContext struct {
	Scheduler   *Scheduler
	Worker      WorkerID
	Group       GroupID
	GroupMask   uint64
	UserContext any
}

// currentWorker is the goroutine-local record tracked for the lifetime of a
// worker goroutine, letting [ContextFor] and [ThisWorkerID] be called from
// arbitrary depth inside a running WorkItem without threading a
// *WorkerContext through every call site, the same goroutine-local-storage
// idiom internal/debug.Log uses to tag log lines with the calling
// goroutine id.
type currentWorker struct {
	sched *Scheduler
	w     *worker
}

var currentWorkerTLS = routine.NewThreadLocal[*currentWorker]()

// ContextFor returns the currently running worker's context for group. The
// second return is false if the calling goroutine is not a scheduler
// worker, or is not a member of group. Valid only inside a running WorkItem
// or on the goroutine bound to worker 0 by [Scheduler.BeginExecution] or
// [Scheduler.TakeOwnership].
func ContextFor(group GroupID) (*WorkerContext, bool) {
	cur := currentWorkerTLS.Get()
	if cur == nil {
		return nil, false
	}

	return cur.w.contextFor(group)
}

// ThisWorkerID returns the id of the currently running worker. Valid only
// inside a running WorkItem or on the goroutine bound to worker 0 by
// [Scheduler.BeginExecution] or [Scheduler.TakeOwnership].
func ThisWorkerID() (WorkerID, bool) {
	cur := currentWorkerTLS.Get()
	if cur == nil {
		return 0, false
	}

	return cur.w.id, true
}
