package allocator

import (
	"github.com/flier/corestone/internal/debug"
	"github.com/flier/corestone/pkg/allocator/strategy"
)

// blocksView adapts the allocator's block/arena banks to the narrow
// [strategy.Blocks] view a [strategy.Strategy] operates against, converting
// between the package-local BlockHandle and strategy.BlockHandle (same
// uint32 representation, kept as distinct types across the package
// boundary to avoid an import cycle, see pkg/allocator/strategy/strategy.go).
type blocksView struct {
	blocks *blockBank
	arenas *arenaBank
}

var _ strategy.Blocks = blocksView{}

func (v blocksView) Size(h strategy.BlockHandle) int64 {
	return v.blocks.mustGet(uint32(h)).size
}

func (v blocksView) IsFree(h strategy.BlockHandle) bool {
	return v.blocks.mustGet(uint32(h)).isFree
}

func (v blocksView) SetFree(h strategy.BlockHandle, free bool) {
	v.blocks.mustGet(uint32(h)).isFree = free
}

func (v blocksView) FreeLinks(h strategy.BlockHandle) (prev, next strategy.BlockHandle) {
	blk := v.blocks.mustGet(uint32(h))
	return strategy.BlockHandle(blk.freePrev), strategy.BlockHandle(blk.freeNext)
}

func (v blocksView) SetFreeLinks(h strategy.BlockHandle, prev, next strategy.BlockHandle) {
	blk := v.blocks.mustGet(uint32(h))
	blk.freePrev, blk.freeNext = BlockHandle(prev), BlockHandle(next)
}

// Split carves an exact size-byte block off the front of h, per
// [strategy.Blocks]. The remainder keeps h's arena membership and is linked
// into arena order immediately after the (possibly shrunk) head block.
func (v blocksView) Split(sh strategy.BlockHandle, size int64) (head, rest strategy.BlockHandle, split bool) {
	h := BlockHandle(sh)
	blk := v.blocks.mustGet(uint32(h))
	if blk.size == size {
		return sh, strategy.NullBlockHandle, false
	}

	arenaH := blk.arena
	origSize := blk.size
	remainderOffset := blk.offset + size
	remainderSize := blk.size - size

	// Shrink in place before emplace: emplace may grow the bank's backing
	// slice and invalidate blk.
	blk.size = size

	restIdx := v.blocks.emplace(block{arena: arenaH, offset: remainderOffset, size: remainderSize, isFree: false})
	restHandle := BlockHandle(restIdx)

	arenaRec := v.arenas.genBank.mustGet(uint32(arenaH))
	insertBlockOrderAfter(v.blocks, arenaRec, h, restHandle)

	debug.Log(nil, "block split", "block %#x: %d bytes -> head %#x (%d bytes), rest %#x (%d bytes)",
		h, origSize, h, size, restHandle, remainderSize)

	return strategy.BlockHandle(h), strategy.BlockHandle(restHandle), true
}
