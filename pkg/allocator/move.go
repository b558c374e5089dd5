package allocator

// moveRecord describes one contiguous copy a [DefragManager] must perform
// during [Allocator.Defragment]: Size bytes read from
// SrcArena at FromOffset must land at DstArena's ToOffset.
type moveRecord struct {
	FromOffset, ToOffset, Size int64
	SrcArena, DstArena         any
}

// appendMove appends rec to moves, coalescing it into the last entry in
// place when it is a direct continuation of it: same arena pair, and its
// source and destination ranges both pick up exactly where the previous
// entry's left off. This keeps a long run of adjacent block relocations
// (the common case when compacting a mostly-empty arena) as a single
// MoveMemory call instead of one per block.
func appendMove(moves []moveRecord, rec moveRecord) []moveRecord {
	if n := len(moves); n > 0 {
		last := &moves[n-1]
		if last.SrcArena == rec.SrcArena && last.DstArena == rec.DstArena &&
			last.FromOffset+last.Size == rec.FromOffset &&
			last.ToOffset+last.Size == rec.ToOffset {
			last.Size += rec.Size
			return moves
		}
	}
	return append(moves, rec)
}
