package allocator

import "fmt"

// ArenaUnavailableError is the expected outcome a [Manager] returns from
// AddArena when it simply has no more capacity to offer: ordinary
// exhaustion, not a Manager malfunction. [Allocator.Allocate] distinguishes
// it from any other error via [github.com/flier/corestone/pkg/xerrors.AsA]
// so that a genuine backing-store failure does not get silently swallowed
// the same way as expected exhaustion.
type ArenaUnavailableError struct {
	Requested int64
}

func (e *ArenaUnavailableError) Error() string {
	return fmt.Sprintf("allocator: manager has no capacity for a %d-byte arena", e.Requested)
}

// Manager lets the owner of an [Allocator] react to arena lifecycle events:
// when the allocator needs a new arena to satisfy a dedicated or overflow
// allocation, and when an arena becomes empty and could be released. The
// allocator itself never allocates real
// memory; a Manager is what ties arena/block bookkeeping back to whatever
// backing store or subsystem the caller is actually sub-allocating from.
type Manager interface {
	// AddArena is called when the allocator needs size additional bytes of
	// backing storage and has no existing arena able to supply them. It
	// returns an opaque userData value the allocator will hand back
	// unexamined on subsequent [DefragManager] calls for this arena's
	// blocks, plus the committed size of the arena (which may be larger
	// than requested, e.g. rounded up to the Manager's page size).
	AddArena(size int64, dedicated bool) (userData any, committed int64, err error)

	// DropArena is called when an arena has become completely free and the
	// allocator is considering releasing it back to the Manager. Returning
	// false keeps the arena resident (its capacity stays part of the free
	// set); returning true tells the allocator to proceed to RemoveArena.
	DropArena(userData any) bool

	// RemoveArena releases an arena the allocator has fully discarded after
	// a DropArena(userData) == true. The allocator guarantees it holds no
	// further references to this arena's blocks once RemoveArena returns.
	RemoveArena(userData any)
}

// DefragManager is an optional extension a [Manager] may additionally
// implement to participate in [Allocator.Defragment]. If the configured
// Manager does not implement it (or no Manager is configured), Defragment
// returns an error without touching any arena.
type DefragManager interface {
	Manager

	// BeginDefragment is called once before any MoveMemory/RebindAlloc
	// calls in a defragmentation pass.
	BeginDefragment()

	// EndDefragment is called once after a defragmentation pass completes,
	// whether or not any moves were performed.
	EndDefragment()

	// MoveMemory copies size bytes of live data from (fromUserData,
	// fromOffset) to (toUserData, toOffset). Both arenas are identified by
	// the same userData values AddArena returned for them.
	MoveMemory(toUserData any, toOffset int64, fromUserData any, fromOffset int64, size int64)

	// RebindAlloc is invoked once per relocated block, after MoveMemory, so
	// the Manager can update any external record of where userHandle's
	// bytes now live: its new arena's userData, the surviving block's new
	// [BlockHandle] (the caller's pre-defrag Handle embeds the old one,
	// which Defragment has already invalidated), and its new offset. A
	// Manager reconstructs a fresh, valid [Handle] for userHandle via
	// Handle3{ArenaUserData: toUserData, Block: newBlock, Offset:
	// toOffset}.AsHandle().
	RebindAlloc(userHandle uint64, toUserData any, newBlock BlockHandle, toOffset int64)
}
