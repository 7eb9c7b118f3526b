package fetcher

import "github.com/goran-ethernal/GridIndexor/internal/events"

// ChunkResult is one element of the lazy event sequence: the decoded logs
// of a single chunk, or the error that made the chunk be skipped.
type ChunkResult struct {
	Range  CoverageRange
	Events []events.Decoded
	Err    error
}

// FetchResult summarizes one FetchRange call.
type FetchResult struct {
	From uint64
	To   uint64

	// Covered and Failed are sorted, merged and together span [From, To].
	Covered []CoverageRange
	Failed  []CoverageRange

	OrdersAdmitted      int
	SettlementsAdmitted int
	Duplicates          int
	Discarded           int
}

// Complete reports whether every chunk succeeded.
func (r *FetchResult) Complete() bool {
	return len(r.Failed) == 0
}

// ContiguousTo returns the highest block covered without a gap starting at From.
// It is From-1 when the first chunk failed, and false when that chunk started
// at block 0 so nothing was covered.
func (r *FetchResult) ContiguousTo() (uint64, bool) {
	if len(r.Failed) == 0 {
		return r.To, true
	}
	if r.Failed[0].FromBlock == 0 {
		return 0, false
	}
	return r.Failed[0].FromBlock - 1, true
}
