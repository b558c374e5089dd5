//go:build go1.19

package xsync

import "sync/atomic"

// Semaphore is a binary semaphore used to park and unpark a single
// goroutine, following the channel-as-semaphore idiom used for worker-pool
// signaling throughout the wider Go ecosystem (a capacity-1 buffered channel
// stands in for the OS binary semaphore the scheduler's design assumes).
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore returns a ready-to-use, initially unsignaled [Semaphore].
func NewSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

// Signal wakes a single waiter, if any is parked in [Semaphore.Wait].
//
// Signal never blocks: if the channel's single slot is already full (the
// semaphore was already signaled and nobody has consumed it yet), the call
// is a no-op, matching POSIX binary-semaphore "post" semantics.
func (s *Semaphore) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks the calling goroutine until [Semaphore.Signal] is called.
func (s *Semaphore) Wait() {
	<-s.ch
}

// WakeData is the per-worker combination of an atomic "armed" flag and a
// binary semaphore used to park and unpark a sleeping worker goroutine.
//
// The status bit is read/written with acquire/release semantics so that a
// submitter which observes status == false (and sets it true) is guaranteed
// to have its queue write visible to the worker once the worker wakes; the
// worker itself clears the bit before parking.
type WakeData struct {
	status atomic.Bool
	sema   *Semaphore
}

// NewWakeData returns a [WakeData] with status initially false, so the very
// first submission aimed at this worker can claim the local_work fast path
// via [WakeData.TryArm] before the worker has ever gone through a
// disarm/wait cycle of its own.
func NewWakeData() *WakeData {
	return &WakeData{sema: NewSemaphore()}
}

// TryArm atomically transitions status from false (sleeping/idle) to true
// (awake/armed), returning whether this call performed the transition.
//
// Submission paths use this to claim a worker's single-slot local_work fast
// path: only the caller that wins the CompareAndSwap may place work there.
func (w *WakeData) TryArm() bool {
	return w.status.CompareAndSwap(false, true)
}

// Disarm clears the awake flag, announcing that the worker is about to
// park on [WakeData.Wait].
func (w *WakeData) Disarm() {
	w.status.Store(false)
}

// Wake signals the worker's semaphore, unparking it if it is waiting.
func (w *WakeData) Wake() {
	w.sema.Signal()
}

// Wait parks the calling goroutine until woken by [WakeData.Wake].
func (w *WakeData) Wait() {
	w.sema.Wait()
}
