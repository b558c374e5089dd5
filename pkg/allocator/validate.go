package allocator

import "fmt"

// ValidateIntegrity walks every arena and the strategy's free set, checking
// that block coverage, the free counters, and the strategy's own totals all
// agree. It never mutates state; a non-nil error names the first
// inconsistency found.
func (a *Allocator) ValidateIntegrity() error {
	var freeBlocks int
	var freeSize int64

	var walkErr error
	a.data.arenas.all(func(arenaH ArenaHandle, arenaRec *arenaRecord) bool {
		var sum int64
		wantOffset := int64(0)

		blockOrder(&a.data.blocks, arenaRec, func(h BlockHandle, b *block) bool {
			if b.offset != wantOffset {
				walkErr = fmt.Errorf("allocator: arena %#x block %#x starts at offset %d, expected %d", arenaH, h, b.offset, wantOffset)
				return false
			}
			sum += b.size
			wantOffset += b.size
			if b.isFree {
				freeBlocks++
				freeSize += b.size
			}
			return true
		})
		if walkErr != nil {
			return false
		}

		if sum != arenaRec.size {
			walkErr = fmt.Errorf("allocator: arena %#x block sizes sum to %d, expected %d", arenaH, sum, arenaRec.size)
			return false
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}

	if freeBlocks != a.strategy.TotalFreeNodes() {
		return fmt.Errorf("allocator: %d free blocks observed, strategy reports %d", freeBlocks, a.strategy.TotalFreeNodes())
	}
	if freeSize != a.strategy.TotalFreeSize() {
		return fmt.Errorf("allocator: free size %d observed, strategy reports %d", freeSize, a.strategy.TotalFreeSize())
	}
	if freeSize != a.data.totalFreeBytes {
		return fmt.Errorf("allocator: free size %d observed, global counter reports %d", freeSize, a.data.totalFreeBytes)
	}

	return a.strategy.ValidateIntegrity(a.blocksView())
}
