package store

import "slices"

// BlockCount is the number of orders seen in one block.
type BlockCount struct {
	Block uint64 `json:"block"`
	Count int    `json:"count"`
}

// blockWindow keeps per-block order counts for the highest capacity blocks.
// observed counts every distinct block that carried an order, including
// blocks too old to enter the window.
type blockWindow struct {
	capacity int
	blocks   []uint64 // ascending
	counts   map[uint64]int
	observed uint64

	// last block rejected as too old; a block's logs arrive together, so
	// consecutive orders of one late block are counted once
	lastLate uint64
	hasLate  bool
}

func newBlockWindow(capacity int) *blockWindow {
	return &blockWindow{
		capacity: capacity,
		blocks:   make([]uint64, 0, capacity),
		counts:   make(map[uint64]int, capacity),
	}
}

// add counts one order in block. It returns false when the window is full and
// block is older than every retained block, in which case only the sighting
// is recorded.
func (w *blockWindow) add(block uint64) bool {
	if _, ok := w.counts[block]; ok {
		w.counts[block]++
		return true
	}

	if w.capacity <= 0 {
		return false
	}

	if len(w.blocks) >= w.capacity {
		if block < w.blocks[0] {
			if !w.hasLate || w.lastLate != block {
				w.lastLate, w.hasLate = block, true
				w.observed++
			}
			return false
		}
		delete(w.counts, w.blocks[0])
		w.blocks = slices.Delete(w.blocks, 0, 1)
	}

	idx, _ := slices.BinarySearch(w.blocks, block)
	w.blocks = slices.Insert(w.blocks, idx, block)
	w.counts[block] = 1
	w.observed++

	return true
}

// series returns the retained counts ascending by block.
func (w *blockWindow) series() []BlockCount {
	out := make([]BlockCount, 0, len(w.blocks))
	for _, b := range w.blocks {
		out = append(out, BlockCount{Block: b, Count: w.counts[b]})
	}
	return out
}
