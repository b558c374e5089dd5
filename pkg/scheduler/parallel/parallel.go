// Package parallel implements a split/join parallel-for convenience on top
// of the scheduler's submission paths.
package parallel

import (
	"sync"

	"github.com/flier/corestone/pkg/scheduler"
)

// For splits [0, n) into at most worker-count contiguous ranges, submits one
// item per range to group, runs the caller's own share inline, and waits
// for every spawned range to finish before returning.
//
// fn is called once per index in [0, n) with the [scheduler.WorkerContext]
// the range happened to run under. n <= 0 is a no-op.
func For(sched *scheduler.Scheduler, srcWorker scheduler.WorkerID, group scheduler.GroupID, n int, fn func(i int, ctx *scheduler.WorkerContext)) {
	if n <= 0 {
		return
	}

	workers := sched.WorkerCount()
	if workers <= 0 {
		workers = 1
	}

	taskCount := workers
	if taskCount > n {
		taskCount = n
	}

	chunk := (n + taskCount - 1) / taskCount

	var wg sync.WaitGroup
	wg.Add(taskCount - 1)

	begin := 0
	for i := 1; i < taskCount; i++ {
		end := begin + chunk
		if end > n {
			end = n
		}

		lo, hi := begin, end
		sched.SubmitToGroup(srcWorker, group, scheduler.Func(func(ctx *scheduler.WorkerContext) {
			defer wg.Done()
			runRange(lo, hi, fn, ctx)
		}))

		begin = end
	}

	// Work before wait: the calling goroutine runs its own share inline
	// rather than submitting it and idling.
	end := begin + chunk
	if end > n {
		end = n
	}

	var ctx *scheduler.WorkerContext
	if c, ok := scheduler.ContextFor(group); ok {
		ctx = c
	}

	runRange(begin, end, fn, ctx)

	// A plain wg.Wait() here can deadlock: one of the ranges submitted above
	// may have landed on srcWorker's own single-slot local_work fast path
	// (scheduler.SubmitToGroup's first preference), and nothing drains that
	// slot for srcWorker unless it is actively looping in
	// [scheduler.Scheduler.HelpWhileWaiting] or the scheduler is already
	// tearing down, least of all srcWorker itself sitting in a bare
	// WaitGroup.Wait. Route the wait through HelpWhileWaiting instead, so
	// srcWorker keeps draining its own queues, quite possibly the very
	// ranges it is waiting on, instead of idling.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	sched.HelpWhileWaiting(srcWorker, done)
}

func runRange(lo, hi int, fn func(int, *scheduler.WorkerContext), ctx *scheduler.WorkerContext) {
	for i := lo; i < hi; i++ {
		fn(i, ctx)
	}
}
