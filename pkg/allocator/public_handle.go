package allocator

import "github.com/flier/corestone/pkg/either"

// Handle2 is the caller-visible allocation result when an Allocator has no
// [Manager] configured: there is only ever one arena kind, so the caller
// only needs the block identity and its offset within it.
type Handle2 struct {
	Block  BlockHandle
	Offset int64
}

// Handle3 is the caller-visible allocation result when an Allocator has a
// [Manager] configured: ArenaUserData is whatever AddArena returned for the
// arena backing this block, letting the caller resolve Offset against real
// storage without going back through the allocator.
type Handle3 struct {
	ArenaUserData any
	Block         BlockHandle
	Offset        int64
}

// Handle is the value [Allocator.Allocate] returns. It wraps
// either.Either[Handle2, Handle3]: a Left value when the owning Allocator
// was built without a
// Manager, a Right value when it was. [Allocator.Deallocate] only ever
// needs the embedded BlockHandle, which both variants carry.
type Handle struct {
	inner either.Either[Handle2, Handle3]
}

func handleFrom2(h Handle2) Handle { return Handle{inner: either.Left[Handle2, Handle3](h)} }
func handleFrom3(h Handle3) Handle { return Handle{inner: either.Right[Handle2, Handle3](h)} }

// AsHandle wraps h as the caller-visible [Handle]. A [DefragManager] uses it
// to reconstruct a valid Handle for a relocated block after
// [DefragManager.RebindAlloc] hands back that block's new identity; the
// caller's old Handle embeds the pre-defrag BlockHandle and is stale once
// Defragment returns.
func (h Handle3) AsHandle() Handle { return handleFrom3(h) }

// IsNull reports whether h is the zero Handle (never returned by a
// successful Allocate).
func (h Handle) IsNull() bool {
	return !h.inner.HasLeft() && !h.inner.HasRight()
}

// Block returns the durable block handle identifying this allocation,
// regardless of which variant is populated.
func (h Handle) Block() BlockHandle {
	return either.Reduce(h.inner,
		func(h2 Handle2) BlockHandle { return h2.Block },
		func(h3 Handle3) BlockHandle { return h3.Block },
	)
}

// Offset returns the byte offset of this allocation within its arena.
func (h Handle) Offset() int64 {
	return either.Reduce(h.inner,
		func(h2 Handle2) int64 { return h2.Offset },
		func(h3 Handle3) int64 { return h3.Offset },
	)
}

// ArenaUserData returns the owning Manager's opaque arena identifier and
// true, or (nil, false) if this Allocator has no Manager configured.
func (h Handle) ArenaUserData() (any, bool) {
	if !h.inner.HasRight() {
		return nil, false
	}
	return h.inner.UnwrapRight().ArenaUserData, true
}
