package allocator

import "github.com/flier/corestone/internal/debug"

// genBank is an append-mostly, index-addressable store supporting
// stable-index Emplace, O(1) dereference, and logical Erase with index
// reuse. It backs both the block pool and the arena registry: the two
// banks are simply genBank[block] and genBank[arenaRecord],
// monomorphized below.
//
// Slot 0 is never handed out: handles are 1-based so that the zero value of
// a handle type is a recognizable null sentinel.
type genBank[T any] struct {
	slots    []bankSlot[T]
	freeList []uint32 // 0-based slot indices available for reuse
}

type bankSlot[T any] struct {
	value    T
	revision uint32
	occupied bool
}

// emplace inserts v and returns a packed handle (1-based index, parity bit).
func (b *genBank[T]) emplace(v T) uint32 {
	var idx uint32
	if n := len(b.freeList); n > 0 {
		idx = b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
	} else {
		idx = uint32(len(b.slots))
		b.slots = append(b.slots, bankSlot[T]{})
	}

	s := &b.slots[idx]
	s.value = v
	s.occupied = true
	s.revision++

	return encodeHandle(idx+1, s.revision)
}

// get dereferences a packed handle, returning (nil, false) if it is null,
// out of range, pointing at an erased slot, or stale (wrong parity).
func (b *genBank[T]) get(h uint32) (*T, bool) {
	idx, parity := decodeHandle(h)
	if idx == 0 || idx > uint32(len(b.slots)) {
		return nil, false
	}

	s := &b.slots[idx-1]
	if !s.occupied || s.revision&1 != parity {
		return nil, false
	}

	return &s.value, true
}

// mustGet is like get, but debug-asserts instead of returning ok=false. It
// is used on the hot allocate/deallocate paths where an invalid handle is a
// programming error, not a recoverable outcome.
func (b *genBank[T]) mustGet(h uint32) *T {
	v, ok := b.get(h)
	debug.Assert(ok, "allocator: invalid or stale bank handle %#x", h)
	return v
}

// erase logically removes the slot referenced by h, making its index
// available for a future emplace (with a flipped revision parity).
func (b *genBank[T]) erase(h uint32) {
	idx, parity := decodeHandle(h)
	if idx == 0 || idx > uint32(len(b.slots)) {
		return
	}

	s := &b.slots[idx-1]
	if !s.occupied || s.revision&1 != parity {
		return
	}

	var zero T
	s.value = zero
	s.occupied = false
	b.freeList = append(b.freeList, idx-1)
}

// forEach walks every occupied slot in slot order (not insertion or any
// other logical order); callers needing arena-creation order use the
// intrusive arena-order list instead (see block.go).
func (b *genBank[T]) forEach(fn func(h uint32, v *T) bool) {
	for i := range b.slots {
		s := &b.slots[i]
		if !s.occupied {
			continue
		}
		if !fn(encodeHandle(uint32(i)+1, s.revision), &s.value) {
			return
		}
	}
}

func (b *genBank[T]) len() int {
	return len(b.slots) - len(b.freeList)
}
