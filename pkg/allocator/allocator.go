package allocator

import (
	"math/bits"

	"github.com/flier/corestone/internal/debug"
	"github.com/flier/corestone/internal/xsync"
	"github.com/flier/corestone/pkg/allocator/strategy"
	"github.com/flier/corestone/pkg/xerrors"
)

// Allocator is a sub-allocator over externally supplied memory: it tracks
// offsets and sizes within zero or more arenas, but never touches real
// storage itself; that is the job of a [Manager], if one is configured.
//
// Allocator is not internally synchronized: concurrent calls on the same
// Allocator are a data race. The usual shape is one Allocator per
// subsystem, owned and driven from a single goroutine.
type Allocator struct {
	strategy strategy.Strategy
	manager  Manager

	arenaSize int64
	data      bankData

	// defragScratch recycles the three accumulator slices [Allocator.Defragment]
	// builds on every pass, rather than letting each call start three fresh
	// nil slices that grow from scratch.
	defragScratch defragScratchPools
}

type defragScratchPools struct {
	moves         xsync.Pool[[]moveRecord]
	rebinds       xsync.Pool[[]rebindTarget]
	deletedArenas xsync.Pool[[]ArenaHandle]
}

// bankData bundles the block and arena banks with the global free-byte
// counter; Defragment builds a fresh one and swaps it in wholesale.
type bankData struct {
	blocks         blockBank
	arenas         arenaBank
	totalFreeBytes int64
}

// New returns an Allocator using strat to manage its free set and
// defaultArenaSize as the size of arenas it adds on demand. manager may be
// nil, in which case the memory is implicit: the Allocator hands out
// offsets within a single defaultArenaSize-byte arena created up front
// (plus any dedicated arenas), never grows on demand, and never
// defragments.
func New(strat strategy.Strategy, defaultArenaSize int64, manager Manager) *Allocator {
	a := &Allocator{strategy: strat, manager: manager, arenaSize: defaultArenaSize}
	a.strategy.Init()

	a.defragScratch.moves.Reset = func(s *[]moveRecord) { *s = (*s)[:0] }
	a.defragScratch.rebinds.Reset = func(s *[]rebindTarget) { *s = (*s)[:0] }
	a.defragScratch.deletedArenas.Reset = func(s *[]ArenaHandle) { *s = (*s)[:0] }

	if manager == nil {
		a.growArena()
	}

	return a
}

// SetArenaSize changes the default arena size used for arenas added on
// demand by subsequent Allocate calls. It does not affect existing arenas.
func (a *Allocator) SetArenaSize(size int64) {
	a.arenaSize = size
}

func (a *Allocator) blocksView() blocksView {
	return blocksView{blocks: &a.data.blocks, arenas: &a.data.arenas}
}

// Allocate reserves size bytes aligned to alignment (a power of two, 1
// meaning unaligned), stamping userHandle onto the resulting block for
// later retrieval by a [Manager]. If dedicated is set, or size adjusted for
// alignment exceeds the default arena size, the allocation gets an arena of
// its own that never participates in subsequent allocations.
//
// Allocate never panics on capacity exhaustion: it returns the zero Handle,
// checkable via [Handle.IsNull].
func (a *Allocator) Allocate(size, alignment int64, userHandle uint64, dedicated bool) Handle {
	debug.Assert(size > 0, "allocator: Allocate called with non-positive size %d", size)
	debug.Assert(alignment > 0 && alignment&(alignment-1) == 0, "allocator: alignment %d is not a power of two", alignment)

	effSize := size + alignment - 1

	if dedicated || effSize > a.arenaSize {
		return a.allocateDedicated(effSize, alignment, userHandle)
	}

	bv := a.blocksView()
	tk := a.strategy.TryAllocate(bv, effSize)
	if tk.IsNone() {
		if a.manager == nil {
			return Handle{}
		}
		grown, ok2 := a.growArena()
		if !ok2 {
			return Handle{}
		}
		tk = a.strategy.TryAllocate(a.blocksView(), effSize)
		debug.Assert(tk.IsSome(), "allocator: strategy failed to place %d bytes in freshly added %d-byte arena", effSize, grown)
		if tk.IsNone() {
			return Handle{}
		}
	}

	blockH := BlockHandle(a.strategy.Commit(a.blocksView(), effSize, tk.Unwrap()))
	return a.finalize(blockH, alignment, userHandle)
}

// allocateDedicated creates a fresh, never-reused arena of exactly effSize
// bytes and hands the whole of it to the caller.
func (a *Allocator) allocateDedicated(effSize, alignment int64, userHandle uint64) Handle {
	var userData any
	if a.manager != nil {
		ud, _, err := a.manager.AddArena(effSize, true)
		if err != nil {
			if _, expected := xerrors.AsA[*ArenaUnavailableError](err); !expected {
				debug.Log(nil, "arena add", "manager returned unexpected error for a dedicated %d-byte arena: %v", effSize, err)
			}
			return Handle{}
		}
		userData = ud
	}

	arenaH := a.data.arenas.emplace(arenaRecord{size: effSize, freeBytes: 0, userData: userData, dedicated: true})
	arenaRec := a.data.arenas.genBank.mustGet(uint32(arenaH))

	blockH := BlockHandle(a.data.blocks.emplace(block{
		arena:      arenaH,
		offset:     0,
		size:       effSize,
		userHandle: userHandle,
		alignShift: uint8(bits.OnesCount64(uint64(alignment - 1))),
	}))
	appendBlockOrder(&a.data.blocks, arenaRec, blockH)

	alignedOffset := alignOffset(0, alignment)
	return a.makeHandle(blockH, userData, alignedOffset)
}

// growArena adds a fresh, empty default-sized arena and registers its
// single spanning block as free, returning the committed size on success.
// With no Manager configured the arena is implicit: there is no real memory
// behind it, so it is created with nil user data.
func (a *Allocator) growArena() (committed int64, ok bool) {
	var ud any
	committed = a.arenaSize
	if a.manager != nil {
		var err error
		ud, committed, err = a.manager.AddArena(a.arenaSize, false)
		if err != nil {
			if _, expected := xerrors.AsA[*ArenaUnavailableError](err); !expected {
				debug.Log(nil, "arena grow", "manager returned unexpected error for a %d-byte arena: %v", a.arenaSize, err)
			}
			return 0, false
		}
	}

	arenaH := a.data.arenas.emplace(arenaRecord{size: committed, freeBytes: committed, userData: ud})
	arenaRec := a.data.arenas.genBank.mustGet(uint32(arenaH))

	blockH := BlockHandle(a.data.blocks.emplace(block{arena: arenaH, offset: 0, size: committed, isFree: true}))
	appendBlockOrder(&a.data.blocks, arenaRec, blockH)

	a.strategy.AddFreeArena(a.blocksView(), strategy.BlockHandle(blockH))
	a.data.totalFreeBytes += committed

	return committed, true
}

// finalize stamps a freshly committed block with its caller metadata and
// accounts for its size, returning the public Handle.
func (a *Allocator) finalize(blockH BlockHandle, alignment int64, userHandle uint64) Handle {
	blk := a.data.blocks.mustGet(uint32(blockH))
	blk.userHandle = userHandle
	blk.alignShift = uint8(bits.OnesCount64(uint64(alignment - 1)))
	blk.isFree = false

	arenaRec := a.data.arenas.genBank.mustGet(uint32(blk.arena))
	arenaRec.freeBytes -= blk.size
	a.data.totalFreeBytes -= blk.size

	alignedOffset := alignOffset(blk.offset, alignment)
	return a.makeHandle(blockH, arenaRec.userData, alignedOffset)
}

func (a *Allocator) makeHandle(blockH BlockHandle, userData any, offset int64) Handle {
	if a.manager == nil {
		return handleFrom2(Handle2{Block: blockH, Offset: offset})
	}
	return handleFrom3(Handle3{ArenaUserData: userData, Block: blockH, Offset: offset})
}

func alignOffset(offset, alignment int64) int64 {
	return (offset + alignment - 1) &^ (alignment - 1)
}

// GetAllocOffset resolves handle back to its owning arena's user data (nil
// if this Allocator has no Manager) and its aligned byte offset.
func (a *Allocator) GetAllocOffset(h Handle) (arenaUserData any, offset int64) {
	blk, ok := a.data.blocks.get(uint32(h.Block()))
	debug.Assert(ok, "allocator: GetAllocOffset on invalid or stale handle %#x", h.Block())
	if !ok {
		return nil, 0
	}
	arenaRec := a.data.arenas.genBank.mustGet(uint32(blk.arena))
	alignment := int64(1) << blk.alignShift
	return arenaRec.userData, alignOffset(blk.offset, alignment)
}

// Deallocate releases the block identified by h, coalescing it with any
// free neighbors in arena order. h must have been returned
// by this Allocator and not yet deallocated; violating this is a
// programming error checked only in debug builds.
func (a *Allocator) Deallocate(h Handle) {
	blockH := h.Block()
	blk, ok := a.data.blocks.get(uint32(blockH))
	debug.Assert(ok, "allocator: Deallocate on invalid, stale, or already-freed handle %#x", blockH)
	if !ok {
		return
	}

	arenaH := blk.arena
	arenaRec := a.data.arenas.genBank.mustGet(uint32(arenaH))
	size := blk.size

	arenaRec.freeBytes += size
	a.data.totalFreeBytes += size

	leftH, rightH := blk.prevInArena, blk.nextInArena
	leftFree := a.blockIsFree(leftH)
	rightFree := a.blockIsFree(rightH)

	bv := a.blocksView()

	switch {
	case !leftFree && !rightFree:
		blk.isFree = true
		a.strategy.AddFree(bv, strategy.BlockHandle(blockH))

	case leftFree && !rightFree:
		left := a.data.blocks.mustGet(uint32(leftH))
		left.size += size
		a.strategy.GrowFreeNode(bv, strategy.BlockHandle(leftH), left.size)
		unlinkBlockOrder(&a.data.blocks, arenaRec, blockH)
		a.data.blocks.erase(uint32(blockH))

	case !leftFree && rightFree:
		right := a.data.blocks.mustGet(uint32(rightH))
		newSize := size + right.size
		blk.size = newSize
		blk.isFree = true
		a.strategy.ReplaceAndGrow(bv, strategy.BlockHandle(rightH), strategy.BlockHandle(blockH), newSize)
		unlinkBlockOrder(&a.data.blocks, arenaRec, rightH)
		a.data.blocks.erase(uint32(rightH))

	default: // both neighbors free
		a.strategy.Erase(bv, strategy.BlockHandle(rightH))
		left := a.data.blocks.mustGet(uint32(leftH))
		right := a.data.blocks.mustGet(uint32(rightH))
		newSize := left.size + size + right.size
		left.size = newSize
		a.strategy.GrowFreeNode(bv, strategy.BlockHandle(leftH), newSize)
		unlinkBlockOrder(&a.data.blocks, arenaRec, blockH)
		unlinkBlockOrder(&a.data.blocks, arenaRec, rightH)
		a.data.blocks.erase(uint32(blockH))
		a.data.blocks.erase(uint32(rightH))
	}

	if a.manager != nil && !arenaRec.dedicated && arenaRec.freeBytes == arenaRec.size {
		a.maybeDropArena(arenaH, arenaRec)
	}
}

func (a *Allocator) blockIsFree(h BlockHandle) bool {
	if h.IsNull() {
		return false
	}
	b, ok := a.data.blocks.get(uint32(h))
	return ok && b.isFree
}

// maybeDropArena offers an entirely-free arena back to the Manager, which
// may decline and keep it resident.
func (a *Allocator) maybeDropArena(arenaH ArenaHandle, arenaRec *arenaRecord) {
	if !a.manager.DropArena(arenaRec.userData) {
		return
	}

	bv := a.blocksView()
	blockOrder(&a.data.blocks, arenaRec, func(h BlockHandle, b *block) bool {
		if b.isFree {
			a.strategy.Erase(bv, strategy.BlockHandle(h))
		}
		a.data.blocks.erase(uint32(h))
		return true
	})

	a.data.totalFreeBytes -= arenaRec.freeBytes
	arenaRec.freeBytes = 0
	arenaRec.size = 0
	arenaRec.headBlock, arenaRec.tailBlock = NullBlockHandle, NullBlockHandle

	userData := arenaRec.userData
	a.data.arenas.erase(arenaH)
	a.manager.RemoveArena(userData)

	debug.Log(nil, "arena drop", "arena %#x released to manager (userData %v)", arenaH, userData)
}
