package scheduler

// WorkItem is a small, trivially-copyable callable package: a function
// over a *[WorkerContext] plus a compressed "target workgroup" payload. A
// Go closure already carries its captured state behind a single
// heap-allocated pointer, so the only allocation happens once, at
// construction. WorkItem itself stays a plain two-field value: what moves
// through queues never allocates.
//
// The zero WorkItem is empty, see [WorkItem.IsEmpty].
type WorkItem struct {
	fn    func(*WorkerContext)
	group GroupID
}

// IsEmpty reports whether w has no function attached.
func (w WorkItem) IsEmpty() bool { return w.fn == nil }

// Group returns the workgroup id carried in w's compressed payload.
func (w WorkItem) Group() GroupID { return w.group }

func (w WorkItem) run(ctx *WorkerContext) { w.fn(ctx) }

// Func wraps a free function as a WorkItem.
func Func(fn func(*WorkerContext)) WorkItem {
	return WorkItem{fn: fn}
}

// FuncValue captures v by value and invokes call with it on every run,
// without requiring the caller to hand-write a closure over v.
func FuncValue[T any](v T, call func(*WorkerContext, T)) WorkItem {
	return WorkItem{fn: func(ctx *WorkerContext) { call(ctx, v) }}
}

// Bound binds method to recv, dispatching to it on every run.
func Bound[T any](recv *T, method func(*T, *WorkerContext)) WorkItem {
	return WorkItem{fn: func(ctx *WorkerContext) { method(recv, ctx) }}
}

// WithGroup returns a copy of item carrying group in its compressed
// payload. Used by [Scheduler.SubmitToGroup] and coroutine resumption,
// which both need to record which workgroup a resumed task belongs to.
func WithGroup(item WorkItem, group GroupID) WorkItem {
	item.group = group
	return item
}
