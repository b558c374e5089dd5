package allocator

import "github.com/flier/corestone/pkg/allocator/strategy"

// NewPool returns an Allocator specialized for a fixed-size-cell pool: every
// allocation is expected to request cellSize bytes, arenas are sized to
// hold cellsPerArena cells at a time, and the free set is a flat best-fit
// list: every free block is the same size in the steady state, so best-fit,
// first-fit, and segregated-by-class all coincide, and a fixed-size pool is
// just the single-size-class degenerate case of the arena allocator.
//
// manager may be nil for a fixed-capacity pool of cellsPerArena cells; a
// pool that should grow on demand needs one.
func NewPool(cellSize int64, cellsPerArena int, manager Manager) *Allocator {
	return New(strategy.NewBestFit(), cellSize*int64(cellsPerArena), manager)
}
