package scheduler

// WorkerID identifies a worker within a [Scheduler]. Worker 0 is always
// the goroutine that called [Scheduler.BeginExecution] (or later
// [Scheduler.TakeOwnership]).
type WorkerID uint32

// GroupID identifies a [Workgroup] within a [Scheduler], as assigned by the
// caller to [Scheduler.CreateGroup]. Group ids below 64 participate in a
// worker's combined [WorkerContext.GroupMask]; ids at or above 64 are
// otherwise fully supported but excluded from the mask.
type GroupID uint32

// EntryFunc runs once on every worker goroutine (worker 0 synchronously
// inside [Scheduler.BeginExecution], the rest on their own spawned
// goroutines) before that worker joins the work-stealing loop.
type EntryFunc func(ctx *WorkerContext)
