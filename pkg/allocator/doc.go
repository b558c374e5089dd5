// Package allocator implements an indexed, sub-allocating arena/block
// allocator with coalescing and defragmentation.
//
// An [Allocator] does not itself own memory: it is a sub-allocator over
// arenas whose backing storage is either implicit (no [Manager] configured,
// callers only ever see offsets) or owned by a caller-supplied [Manager].
// This mirrors how a GPU suballocator, an mmap'd file's page allocator, or a
// shared-memory segment allocator would be used: the allocator tracks which
// byte ranges of each arena are free or in use, and a [Manager] is
// responsible for actually providing, moving, and releasing the bytes those
// ranges describe.
//
// # Core operations
//
// [New] constructs an allocator over a [strategy.Strategy]. [Allocator.Allocate]
// and [Allocator.Deallocate] are the hot path; [Allocator.Defragment] is a
// safepoint-style compaction pass that requires a [Manager] implementing
// [DefragManager]; [Allocator.ValidateIntegrity] is a diagnostic walk that
// never mutates state.
//
// # Concurrency
//
// An [Allocator] is not internally synchronized. Concurrent calls on the
// same allocator from multiple goroutines are a data race; callers that need
// concurrent access must provide their own external locking. The scheduler
// in [github.com/flier/corestone/pkg/scheduler] is the concurrent primitive
// in this module; allocators are meant to be used one-per-subsystem on a
// single goroutine (or behind a single external lock).
package allocator
