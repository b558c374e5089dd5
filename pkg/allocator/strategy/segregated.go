package strategy

import (
	"fmt"
	"math/bits"

	"github.com/flier/corestone/pkg/opt"
)

const numSizeClasses = 64

// Segregated is a [Strategy] implementation using segregated free lists
// keyed by size class: a block of index h lives in the free list for class
// floor(log2(size)), and a request of size n searches classes starting at
// ceil(log2(n)), which is the smallest class every member of which is
// guaranteed large enough to satisfy the request.
//
// Because a class only guarantees a *lower* bound on member size, a smaller
// member of a lower class may occasionally be large enough to satisfy a
// request but go unconsidered (the search never looks below its start
// class); this trades a small amount of packing efficiency for O(1)-ish
// allocation and has no effect on correctness.
//
// Segregated holds no state tied to a particular [Blocks] beyond its own
// free-set bookkeeping; the same value is reused across calls against the
// same owning allocator.
type Segregated struct {
	heads [numSizeClasses]BlockHandle
	info  map[BlockHandle]segEntry

	nodes int
	size  int64
}

type segEntry struct {
	class int
	size  int64
}

// NewSegregated returns a ready-to-use Segregated strategy.
func NewSegregated() *Segregated {
	return &Segregated{info: make(map[BlockHandle]segEntry)}
}

func (s *Segregated) Init() {}

func (s *Segregated) Fresh() Strategy { return NewSegregated() }

func (s *Segregated) TryAllocate(_ Blocks, size int64) opt.Option[Ticket] {
	for c := classCeil(size); c < numSizeClasses; c++ {
		if h := s.heads[c]; h != NullBlockHandle {
			return opt.Some(Ticket(h))
		}
	}
	return opt.None[Ticket]()
}

func (s *Segregated) Commit(blocks Blocks, size int64, ticket Ticket) BlockHandle {
	h := BlockHandle(ticket)
	s.removeFromClass(blocks, h)

	head, rest, split := blocks.Split(h, size)
	blocks.SetFree(head, false)
	if split {
		blocks.SetFree(rest, true)
		s.addFreeWithSize(blocks, rest, blocks.Size(rest))
	}
	return head
}

func (s *Segregated) AddFree(blocks Blocks, h BlockHandle) {
	s.addFreeWithSize(blocks, h, blocks.Size(h))
}

func (s *Segregated) AddFreeArena(blocks Blocks, h BlockHandle) {
	s.AddFree(blocks, h)
}

func (s *Segregated) GrowFreeNode(blocks Blocks, h BlockHandle, newSize int64) {
	s.removeFromClass(blocks, h)
	s.addFreeWithSize(blocks, h, newSize)
}

func (s *Segregated) ReplaceAndGrow(blocks Blocks, oldH, newH BlockHandle, newSize int64) {
	s.removeFromClass(blocks, oldH)
	s.addFreeWithSize(blocks, newH, newSize)
}

func (s *Segregated) Erase(blocks Blocks, h BlockHandle) {
	s.removeFromClass(blocks, h)
}

func (s *Segregated) TotalFreeNodes() int  { return s.nodes }
func (s *Segregated) TotalFreeSize() int64 { return s.size }

func (s *Segregated) ValidateIntegrity(blocks Blocks) error {
	var nodes int
	var size int64
	for h, e := range s.info {
		if !blocks.IsFree(h) {
			return fmt.Errorf("strategy: block %#x is in the free set but not marked free", h)
		}
		if classFloor(e.size) != e.class {
			return fmt.Errorf("strategy: block %#x recorded size %d does not match class %d", h, e.size, e.class)
		}
		nodes++
		size += e.size
	}
	if nodes != s.nodes {
		return fmt.Errorf("strategy: node count %d does not match tracked total %d", nodes, s.nodes)
	}
	if size != s.size {
		return fmt.Errorf("strategy: free size %d does not match tracked total %d", size, s.size)
	}
	return nil
}

// addFreeWithSize threads h onto the head of its size class's free list and
// records its class/size for later removal, independent of whatever blocks
// itself reports for h's size at that later point in time.
func (s *Segregated) addFreeWithSize(blocks Blocks, h BlockHandle, size int64) {
	class := classFloor(size)

	head := s.heads[class]
	blocks.SetFreeLinks(h, NullBlockHandle, head)
	if head != NullBlockHandle {
		_, headNext := blocks.FreeLinks(head)
		blocks.SetFreeLinks(head, h, headNext)
	}
	s.heads[class] = h
	s.info[h] = segEntry{class: class, size: size}
	s.nodes++
	s.size += size
}

// removeFromClass unlinks h from whichever size class it was filed under
// (recorded at insertion time, not recomputed from blocks.Size, since by the
// time some callers invoke this the allocator may already have mutated h's
// size field). A no-op if h is not currently in the free set.
func (s *Segregated) removeFromClass(blocks Blocks, h BlockHandle) {
	entry, ok := s.info[h]
	if !ok {
		return
	}

	prev, next := blocks.FreeLinks(h)
	if prev != NullBlockHandle {
		prevPrev, _ := blocks.FreeLinks(prev)
		blocks.SetFreeLinks(prev, prevPrev, next)
	} else {
		s.heads[entry.class] = next
	}
	if next != NullBlockHandle {
		_, nextNext := blocks.FreeLinks(next)
		blocks.SetFreeLinks(next, prev, nextNext)
	}
	blocks.SetFreeLinks(h, NullBlockHandle, NullBlockHandle)

	delete(s.info, h)
	s.nodes--
	s.size -= entry.size
}

// classFloor returns floor(log2(n)) for n >= 1, clamped to the valid class
// range. A block placed via classFloor is guaranteed to have size >=
// 1<<class.
func classFloor(n int64) int {
	if n < 1 {
		n = 1
	}
	c := bits.Len64(uint64(n)) - 1
	return clampClass(c)
}

// classCeil returns ceil(log2(n)) for n >= 1, clamped to the valid class
// range. Searching for a request of size n must start at classCeil(n): any
// class >= classCeil(n) is guaranteed (via classFloor's invariant) to only
// contain blocks of size >= n.
func classCeil(n int64) int {
	if n <= 1 {
		return 0
	}
	c := bits.Len64(uint64(n - 1))
	return clampClass(c)
}

func clampClass(c int) int {
	if c < 0 {
		return 0
	}
	if c >= numSizeClasses {
		return numSizeClasses - 1
	}
	return c
}
