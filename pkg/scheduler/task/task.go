// Package task implements a coroutine-flavored task composition layer on
// top of [scheduler.Scheduler]. Go has no stackless coroutines, so [Task]
// renders the "suspended computation with a promise" shape as a deferred
// function plus a single-shot result channel: the completing goroutine and
// the awaiter race to decide who observes the result first, arbitrated
// with a channel close and an atomic flag instead of a suspended call
// stack.
package task

import (
	"sync/atomic"

	"github.com/flier/corestone/pkg/res"
	"github.com/flier/corestone/pkg/scheduler"
)

// Task is a handle to a computation that produces a T, submitted to (or run
// eagerly on) a [scheduler.Scheduler]. The zero Task is invalid; use [Lazy]
// or [Eager] to build one.
type Task[T any] struct {
	doneCh chan struct{}
	resume func(*scheduler.WorkerContext) // nil for Eager tasks; set by Lazy
	sched  *scheduler.Scheduler           // set once known, by Eager or Submit; nil until then

	done atomic.Bool
	val  res.Result[T]
}

func newTask[T any]() *Task[T] {
	return &Task[T]{doneCh: make(chan struct{})}
}

// finish records r and unblocks every current and future [Task.Await]
// caller. Closing doneCh (rather than sending on a capacity-1 channel)
// lets more than one goroutine await the same Task: a receive from a
// closed channel never blocks, and the write to t.val happens-before the
// close, which happens-before any receive.
func (t *Task[T]) finish(r res.Result[T]) {
	t.val = r
	close(t.doneCh)
	t.done.Store(true)
}

// IsDone reports whether t's computation has produced a value.
func (t *Task[T]) IsDone() bool { return t.done.Load() }

// Result returns t's value and whether it has been produced yet, without
// blocking. Prefer [Task.Await] to wait for completion.
func (t *Task[T]) Result() (T, bool) {
	if !t.done.Load() {
		var zero T
		return zero, false
	}

	return t.val.Expect("task: Result called on a task that reported done without a value"), true
}

// Lazy builds a [Task] whose body only runs once a [scheduler.Scheduler]
// resumes it, via [Task.AsWorkItem] handed to Submit. fn receives the
// WorkerContext the scheduler resumed it under.
func Lazy[T any](fn func(*scheduler.WorkerContext) T) *Task[T] {
	t := newTask[T]()
	t.resume = func(ctx *scheduler.WorkerContext) {
		t.finish(res.Ok(fn(ctx)))
	}

	return t
}

// Eager builds a [Task] whose body starts running immediately, submitted to
// group on sched at construction time. Awaiting it still blocks if the
// body has not yet produced a value by the time [Task.Await] is called.
func Eager[T any](sched *scheduler.Scheduler, group scheduler.GroupID, fn func(*scheduler.WorkerContext) T) *Task[T] {
	t := newTask[T]()
	t.sched = sched

	var src scheduler.WorkerID
	if id, ok := scheduler.ThisWorkerID(); ok {
		src = id
	}

	sched.SubmitToGroup(src, group, scheduler.Func(func(ctx *scheduler.WorkerContext) {
		t.finish(res.Ok(fn(ctx)))
	}))

	return t
}

// AsWorkItem wraps t's resumption into a [scheduler.WorkItem] carrying
// group in its compressed payload. Valid only for tasks built with [Lazy];
// calling it on a task built with [Eager] panics, since an eager task's
// body has already run (or is already running) and has no deferred
// resumption to wrap.
func (t *Task[T]) AsWorkItem(group scheduler.GroupID) scheduler.WorkItem {
	if t.resume == nil {
		panic("task: AsWorkItem called on an eager task")
	}

	return scheduler.WithGroup(scheduler.Func(func(ctx *scheduler.WorkerContext) {
		t.resume(ctx)
	}), group)
}

// Submit hands a [Lazy] task to sched under group, resuming it on whichever
// worker picks up the work item. srcWorker is the id of the worker (or 0
// for the main goroutine) performing the submission.
func Submit[T any](sched *scheduler.Scheduler, srcWorker scheduler.WorkerID, group scheduler.GroupID, t *Task[T]) {
	t.sched = sched
	sched.SubmitToGroup(srcWorker, group, t.AsWorkItem(group))
}

// Await blocks the calling goroutine until t has a result and returns it.
// Awaiting an already-done task returns immediately without a channel
// receive.
//
// When ctx is non-nil (Await is being called from inside a running
// [scheduler.WorkItem], as every recursive task chain does), a plain
// channel receive would occupy that worker's loop for as long as t takes
// to finish, and a worker pool only has finitely many active loops; a
// chain deeper than the pool's worker count would then deadlock waiting on
// a continuation no worker is free to run. Instead Await calls
// [scheduler.Scheduler.HelpWhileWaiting], which keeps pulling and running
// other queued work on this same worker, quite possibly t's own
// resumption, until t.doneCh closes: the blocked goroutine makes itself
// useful instead of holding a slot.
//
// Await called with ctx == nil still needs the same treatment when the
// calling goroutine is bound to worker 0, the goroutine that called
// [scheduler.Scheduler.BeginExecution], because worker 0 only ever runs
// the full work-stealing loop during [scheduler.Scheduler.EndExecution]'s
// drain. A plain channel receive there would wait forever for a drain that
// has not started yet if the awaited task's own work item happened to land
// on worker 0's queue or local slot. So Await resolves the calling
// goroutine's worker id via [scheduler.ThisWorkerID] (set for worker 0 by
// BeginExecution/TakeOwnership too) and pumps
// [scheduler.Scheduler.HelpWhileWaiting] whenever it resolves to any
// worker, ctx or not. Only a goroutine that is not bound to any worker at
// all (one that never called BeginExecution/TakeOwnership and is not
// running inside a WorkItem) falls back to a plain blocking receive, since
// it has no queue of its own to pump.
func (t *Task[T]) Await(ctx *scheduler.WorkerContext) T {
	if !t.done.Load() {
		switch {
		case ctx != nil:
			ctx.Scheduler.HelpWhileWaiting(ctx.Worker, t.doneCh)
		case t.sched != nil:
			if id, ok := scheduler.ThisWorkerID(); ok {
				t.sched.HelpWhileWaiting(id, t.doneCh)
			} else {
				<-t.doneCh
			}
		default:
			<-t.doneCh
		}
	}

	return t.val.Expect("task: Await observed a completion signal without a value")
}
