// Package strategy defines the pluggable free-list discipline that
// [github.com/flier/corestone/pkg/allocator] uses to find, split, and
// re-file free blocks.
//
// The allocator core does only a handful of Strategy calls per
// Allocate/Deallocate, so the indirection cost of a Go interface here is
// negligible; a concrete implementation may be a best-fit tree, a
// first-fit list, or, as with [Segregated], segregated free lists keyed by
// size class.
package strategy

import "github.com/flier/corestone/pkg/opt"

// BlockHandle is the strategy-visible view of a block reference. It has the
// same representation as allocator.BlockHandle, but this package does not
// import allocator (doing so would create an import cycle, since allocator
// depends on Strategy); Blocks implementations are responsible for
// converting between the two at the package boundary.
type BlockHandle uint32

// NullBlockHandle is the reserved handle that never refers to a live block.
const NullBlockHandle BlockHandle = 0

// Ticket is the opaque value [Strategy.TryAllocate] hands back to
// [Strategy.Commit]. The allocator core never interprets it.
type Ticket = BlockHandle

// Blocks is the narrow view of the allocator's block storage a Strategy
// needs: enough to read a block's size and free-state, thread it onto a
// free-list via its strategy-owned link fields, and split a free block in
// two when an allocation is smaller than the block that satisfies it.
type Blocks interface {
	// Size returns the size in bytes of the block referenced by h.
	Size(h BlockHandle) int64

	// IsFree reports whether h is currently marked free.
	IsFree(h BlockHandle) bool

	// SetFree marks h as free or allocated.
	SetFree(h BlockHandle, free bool)

	// FreeLinks returns the strategy-owned previous/next links of h.
	FreeLinks(h BlockHandle) (prev, next BlockHandle)

	// SetFreeLinks sets the strategy-owned previous/next links of h.
	SetFreeLinks(h BlockHandle, prev, next BlockHandle)

	// Split carves an exact block of size bytes out of the front of the
	// free block h. If h is exactly size bytes, split is false and head
	// equals h. Otherwise split is true: head is a (possibly new) handle
	// for the leading size-byte sub-block and rest is a handle for the
	// trailing remainder, both already linked into the owning arena's
	// block-order list in place of h.
	Split(h BlockHandle, size int64) (head, rest BlockHandle, split bool)
}

// Strategy is the pluggable free-list discipline over the allocator's free
// blocks. All operations except Init, Fresh, TotalFreeNodes and TotalFreeSize
// take the owning allocator's [Blocks] view so implementations can read and
// re-thread block records without owning the block storage themselves.
type Strategy interface {
	// Init performs one-time setup against the owning allocator.
	Init()

	// Fresh returns a new, empty instance of the same strategy kind,
	// ready for Init. Defragment uses it to build the compacted bank data
	// without disturbing the strategy driving the live one.
	Fresh() Strategy

	// TryAllocate locates a free block capable of holding size bytes and
	// returns an opaque ticket wrapped in [opt.Option], without mutating
	// any state. The option is None if no such block exists.
	TryAllocate(blocks Blocks, size int64) opt.Option[Ticket]

	// Commit consumes a ticket previously returned by TryAllocate, splitting
	// the found block if it is larger than size; the remainder, if any,
	// re-enters the free set via AddFree. Returns the (possibly new) handle
	// of the exactly-size-byte block to hand to the caller.
	Commit(blocks Blocks, size int64, ticket Ticket) BlockHandle

	// AddFree inserts a block into the free set.
	AddFree(blocks Blocks, h BlockHandle)

	// AddFreeArena is like AddFree, for the single block spanning a freshly
	// added, entirely empty arena.
	AddFreeArena(blocks Blocks, h BlockHandle)

	// GrowFreeNode updates the free set after a free block's size increased
	// via a left-merge (the block itself did not change identity).
	GrowFreeNode(blocks Blocks, h BlockHandle, newSize int64)

	// ReplaceAndGrow updates the free set after a free block (oldH) is
	// replaced by a different, larger block (newH) via a right-merge.
	ReplaceAndGrow(blocks Blocks, oldH, newH BlockHandle, newSize int64)

	// Erase removes a block from the free set without changing its
	// free/allocated flag.
	Erase(blocks Blocks, h BlockHandle)

	// TotalFreeNodes returns the number of blocks currently in the free set.
	TotalFreeNodes() int

	// TotalFreeSize returns the sum of sizes of blocks in the free set.
	TotalFreeSize() int64

	// ValidateIntegrity performs a strategy-internal consistency check,
	// returning a descriptive error on the first inconsistency found. It
	// never mutates observable state.
	ValidateIntegrity(blocks Blocks) error
}
