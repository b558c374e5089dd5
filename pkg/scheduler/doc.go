// Package scheduler implements a multi-goroutine, work-stealing task
// engine: per-worker deques, randomized victim stealing, adaptive backoff,
// workgroup priorities, and exclusive per-worker queues.
//
// # Lifecycle
//
// Callers register one or more [Workgroup]s with [Scheduler.CreateGroup],
// start the scheduler with [Scheduler.BeginExecution] (which spawns one
// goroutine per worker beyond worker 0, the calling goroutine), submit
// [WorkItem]s with [Scheduler.SubmitToGroup] / [Scheduler.SubmitToWorker] /
// [Scheduler.SubmitToWorkerInGroup], and tear it down with
// [Scheduler.EndExecution], which drains every queue before signalling
// worker goroutines to quit and joining them.
//
// # Concurrency
//
// Every worker beyond worker 0 runs on its own goroutine; worker 0 is
// whichever goroutine called [Scheduler.BeginExecution] (or later
// [Scheduler.TakeOwnership]). Shared state is either per-worker, guarded by
// a per-queue [internal/xsync.SpinLock], or atomic. The steal path only ever
// try-locks another worker's queue; submission may spin on a destination
// queue's lock ([Scheduler.SubmitToWorker], and [Scheduler.SubmitToGroup]'s
// forced fallback). An idle worker parks only on its own wake semaphore.
package scheduler
