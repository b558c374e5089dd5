package scheduler

import "sync/atomic"

// Workgroup is a named collection of workers sharing a static priority, as
// registered by [Scheduler.CreateGroup]. Each member worker has its own
// lock-guarded FIFO queue within the group; [Scheduler.SubmitToGroup]
// round-robins across them starting from pushOffset when no worker can be
// woken directly.
type Workgroup struct {
	ID          GroupID
	StartWorker int
	WorkerCount int
	Priority    int

	pushOffset atomic.Uint64
	queues     []*queue
}

func newWorkgroup(id GroupID, startWorker, workerCount, priority int) *Workgroup {
	g := &Workgroup{ID: id, StartWorker: startWorker, WorkerCount: workerCount, Priority: priority}

	g.queues = make([]*queue, workerCount)
	for i := range g.queues {
		g.queues[i] = newQueue()
	}

	return g
}

// queueFor returns this group's queue for the worker at local index i
// (0-based, relative to StartWorker).
func (g *Workgroup) queueFor(i int) *queue { return g.queues[i] }
