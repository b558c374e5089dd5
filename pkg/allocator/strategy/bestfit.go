package strategy

import (
	"fmt"

	"github.com/flier/corestone/pkg/opt"
)

// BestFit is a [Strategy] implementation that keeps a single doubly-linked
// free list and, on TryAllocate, walks the whole list to find the smallest
// free block that is still large enough to satisfy the request, trading
// O(n) search for minimal internal fragmentation relative to [Segregated].
//
// It is the strategy behind the fixed-cell pool constructor
// (allocator.NewPool): every cell is the same size, so best-fit and
// first-fit and segregated-by-class all coincide, and a flat list is the
// simplest correct choice.
type BestFit struct {
	head BlockHandle
	info map[BlockHandle]int64

	nodes int
	size  int64
}

// NewBestFit returns a ready-to-use BestFit strategy.
func NewBestFit() *BestFit {
	return &BestFit{info: make(map[BlockHandle]int64)}
}

func (s *BestFit) Init() {}

func (s *BestFit) Fresh() Strategy { return NewBestFit() }

func (s *BestFit) TryAllocate(blocks Blocks, size int64) opt.Option[Ticket] {
	var best BlockHandle
	var bestSize int64 = -1

	for h := s.head; h != NullBlockHandle; {
		sz := s.info[h]
		if sz >= size && (bestSize < 0 || sz < bestSize) {
			best, bestSize = h, sz
			if sz == size {
				break
			}
		}
		_, h = blocks.FreeLinks(h)
	}

	if bestSize < 0 {
		return opt.None[Ticket]()
	}
	return opt.Some(Ticket(best))
}

func (s *BestFit) Commit(blocks Blocks, size int64, ticket Ticket) BlockHandle {
	h := BlockHandle(ticket)
	s.remove(blocks, h)

	head, rest, split := blocks.Split(h, size)
	blocks.SetFree(head, false)
	if split {
		blocks.SetFree(rest, true)
		s.addFreeWithSize(blocks, rest, blocks.Size(rest))
	}
	return head
}

func (s *BestFit) AddFree(blocks Blocks, h BlockHandle) {
	s.addFreeWithSize(blocks, h, blocks.Size(h))
}

func (s *BestFit) AddFreeArena(blocks Blocks, h BlockHandle) {
	s.AddFree(blocks, h)
}

func (s *BestFit) GrowFreeNode(blocks Blocks, h BlockHandle, newSize int64) {
	s.remove(blocks, h)
	s.addFreeWithSize(blocks, h, newSize)
}

func (s *BestFit) ReplaceAndGrow(blocks Blocks, oldH, newH BlockHandle, newSize int64) {
	s.remove(blocks, oldH)
	s.addFreeWithSize(blocks, newH, newSize)
}

func (s *BestFit) Erase(blocks Blocks, h BlockHandle) {
	s.remove(blocks, h)
}

func (s *BestFit) TotalFreeNodes() int  { return s.nodes }
func (s *BestFit) TotalFreeSize() int64 { return s.size }

func (s *BestFit) ValidateIntegrity(blocks Blocks) error {
	var nodes int
	var size int64
	for h := s.head; h != NullBlockHandle; {
		if !blocks.IsFree(h) {
			return fmt.Errorf("strategy: block %#x is in the free set but not marked free", h)
		}
		nodes++
		size += s.info[h]
		_, h = blocks.FreeLinks(h)
	}
	if nodes != s.nodes {
		return fmt.Errorf("strategy: node count %d does not match tracked total %d", nodes, s.nodes)
	}
	if size != s.size {
		return fmt.Errorf("strategy: free size %d does not match tracked total %d", size, s.size)
	}
	return nil
}

func (s *BestFit) addFreeWithSize(blocks Blocks, h BlockHandle, size int64) {
	blocks.SetFreeLinks(h, NullBlockHandle, s.head)
	if s.head != NullBlockHandle {
		_, headNext := blocks.FreeLinks(s.head)
		blocks.SetFreeLinks(s.head, h, headNext)
	}
	s.head = h
	s.info[h] = size
	s.nodes++
	s.size += size
}

func (s *BestFit) remove(blocks Blocks, h BlockHandle) {
	size, ok := s.info[h]
	if !ok {
		return
	}

	prev, next := blocks.FreeLinks(h)
	if prev != NullBlockHandle {
		prevPrev, _ := blocks.FreeLinks(prev)
		blocks.SetFreeLinks(prev, prevPrev, next)
	} else {
		s.head = next
	}
	if next != NullBlockHandle {
		_, nextNext := blocks.FreeLinks(next)
		blocks.SetFreeLinks(next, prev, nextNext)
	}
	blocks.SetFreeLinks(h, NullBlockHandle, NullBlockHandle)

	delete(s.info, h)
	s.nodes--
	s.size -= size
}
