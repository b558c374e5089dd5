package strategy

// fakeBlocks is a minimal in-memory Blocks double for exercising a Strategy
// in isolation, independent of the real allocator package's bank types.
type fakeBlocks struct {
	next  BlockHandle
	size  map[BlockHandle]int64
	free  map[BlockHandle]bool
	links map[BlockHandle][2]BlockHandle
}

func newFakeBlocks() *fakeBlocks {
	return &fakeBlocks{
		size:  make(map[BlockHandle]int64),
		free:  make(map[BlockHandle]bool),
		links: make(map[BlockHandle][2]BlockHandle),
	}
}

// add registers a fresh block of the given size and returns its handle.
func (b *fakeBlocks) add(size int64) BlockHandle {
	b.next++
	h := b.next
	b.size[h] = size
	return h
}

func (b *fakeBlocks) Size(h BlockHandle) int64      { return b.size[h] }
func (b *fakeBlocks) IsFree(h BlockHandle) bool     { return b.free[h] }
func (b *fakeBlocks) SetFree(h BlockHandle, v bool) { b.free[h] = v }

func (b *fakeBlocks) FreeLinks(h BlockHandle) (prev, next BlockHandle) {
	l := b.links[h]
	return l[0], l[1]
}

func (b *fakeBlocks) SetFreeLinks(h BlockHandle, prev, next BlockHandle) {
	b.links[h] = [2]BlockHandle{prev, next}
}

func (b *fakeBlocks) Split(h BlockHandle, size int64) (head, rest BlockHandle, split bool) {
	total := b.size[h]
	if total == size {
		return h, NullBlockHandle, false
	}
	b.size[h] = size
	restH := b.add(total - size)
	return h, restH, true
}
