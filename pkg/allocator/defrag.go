package allocator

import (
	"fmt"

	"github.com/flier/corestone/internal/debug"
	"github.com/flier/corestone/pkg/allocator/strategy"
)

// rebindTarget is one pending RebindAlloc call, deferred until every move
// in a defragmentation pass has executed. dstBlock
// is the surviving block's new handle, without which a Manager has no way
// to reconstruct a valid [Handle] for userHandle once its old, pre-defrag
// BlockHandle is invalidated.
type rebindTarget struct {
	userHandle  uint64
	dstUserData any
	dstBlock    BlockHandle
	dstOffset   int64
}

// Defragment compacts live allocations into the minimum number of arenas:
// build a fresh, empty bank data set driven by a fresh strategy instance,
// re-place every live block into
// it (adding destination arenas lazily, at most one per source arena), move
// the underlying memory via the configured [DefragManager], rebind external
// references, and finally swap the fresh bank data in as the live one.
//
// Defragment requires a Manager implementing [DefragManager]; it returns an
// error immediately if none is configured.
func (a *Allocator) Defragment() error {
	dm, ok := a.manager.(DefragManager)
	if !ok {
		return fmt.Errorf("allocator: Defragment requires a Manager implementing DefragManager")
	}

	dm.BeginDefragment()
	defer dm.EndDefragment()

	newStrat := a.strategy.Fresh()
	newStrat.Init()

	var r bankData
	rv := func() blocksView { return blocksView{blocks: &r.blocks, arenas: &r.arenas} }

	// Defragment runs rarely but over every live block, so its three
	// accumulator slices are worth recycling across calls rather than
	// growing three fresh nil slices from scratch each time.
	movesP := a.defragScratch.moves.Get()
	rebindsP := a.defragScratch.rebinds.Get()
	deletedArenasP := a.defragScratch.deletedArenas.Get()
	defer func() {
		a.defragScratch.moves.Put(movesP)
		a.defragScratch.rebinds.Put(rebindsP)
		a.defragScratch.deletedArenas.Put(deletedArenasP)
	}()

	moves := *movesP
	rebinds := *rebindsP
	deletedArenas := *deletedArenasP

	a.data.arenas.all(func(srcArenaH ArenaHandle, srcArenaRec *arenaRecord) bool {
		var dstArenaRec *arenaRecord

		blockOrder(&a.data.blocks, srcArenaRec, func(_ BlockHandle, srcBlk *block) bool {
			if srcBlk.isFree {
				return true
			}

			size := srcBlk.size
			tk := newStrat.TryAllocate(rv(), size)
			if tk.IsNone() {
				if dstArenaRec == nil {
					arenaSize := srcArenaRec.size
					if size > arenaSize {
						arenaSize = size
					}
					dstArenaH := r.arenas.emplace(arenaRecord{size: arenaSize, freeBytes: arenaSize, userData: srcArenaRec.userData, dedicated: srcArenaRec.dedicated})
					dstArenaRec = r.arenas.genBank.mustGet(uint32(dstArenaH))

					spanH := BlockHandle(r.blocks.emplace(block{arena: dstArenaH, offset: 0, size: arenaSize, isFree: true}))
					appendBlockOrder(&r.blocks, dstArenaRec, spanH)
					newStrat.AddFreeArena(rv(), strategy.BlockHandle(spanH))
					r.totalFreeBytes += arenaSize
				}
				tk = newStrat.TryAllocate(rv(), size)
				debug.Assert(tk.IsSome(), "allocator: defragment could not place a %d-byte live block even after adding a fresh arena", size)
				if tk.IsNone() {
					return false
				}
			}

			dstBlockH := BlockHandle(newStrat.Commit(rv(), size, tk.Unwrap()))
			dstBlk := r.blocks.mustGet(uint32(dstBlockH))
			dstBlk.userHandle = srcBlk.userHandle
			dstBlk.alignShift = srcBlk.alignShift

			dstArena := r.arenas.genBank.mustGet(uint32(dstBlk.arena))
			dstArena.freeBytes -= size
			r.totalFreeBytes -= size

			alignedOffset := alignOffset(dstBlk.offset, int64(1)<<dstBlk.alignShift)
			moves = appendMove(moves, moveRecord{
				FromOffset: srcBlk.offset, ToOffset: dstBlk.offset, Size: size,
				SrcArena: srcArenaRec.userData, DstArena: dstArena.userData,
			})
			rebinds = append(rebinds, rebindTarget{
				userHandle: srcBlk.userHandle, dstUserData: dstArena.userData,
				dstBlock: dstBlockH, dstOffset: alignedOffset,
			})

			return true
		})

		// A source arena whose own buffer was never reused as a destination
		// (because every live block it held fit into space already claimed
		// by an earlier source arena) has had its entire contents moved
		// elsewhere; it is superfluous and gets torn down.
		if dstArenaRec == nil {
			deletedArenas = append(deletedArenas, srcArenaH)
		}
		return true
	})

	*movesP, *rebindsP, *deletedArenasP = moves, rebinds, deletedArenas

	for _, rec := range moves {
		dm.MoveMemory(rec.DstArena, rec.ToOffset, rec.SrcArena, rec.FromOffset, rec.Size)
	}
	for _, rb := range rebinds {
		dm.RebindAlloc(rb.userHandle, rb.dstUserData, rb.dstBlock, rb.dstOffset)
	}
	for _, arenaH := range deletedArenas {
		if arenaRec, ok := a.data.arenas.genBank.get(uint32(arenaH)); ok {
			dm.RemoveArena(arenaRec.userData)
		}
	}

	a.strategy = newStrat
	a.data = r

	return nil
}
