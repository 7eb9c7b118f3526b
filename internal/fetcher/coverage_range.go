package fetcher

import (
	"cmp"
	"slices"
)

// CoverageRange is an inclusive block range.
type CoverageRange struct {
	FromBlock uint64 `json:"from_block"`
	ToBlock   uint64 `json:"to_block"`
}

// Blocks returns the number of blocks in the range.
func (r CoverageRange) Blocks() uint64 {
	return r.ToBlock - r.FromBlock + 1
}

// IsCovered checks if the entire range [from, to] is covered by one of the coverage ranges.
func IsCovered(from, to uint64, coverage []CoverageRange) bool {
	for _, r := range coverage {
		if r.FromBlock <= from && r.ToBlock >= to {
			return true
		}
	}

	return false
}

// GetMissingRanges returns the block ranges in [from, to] that are not covered.
// Coverage must be sorted by FromBlock.
func GetMissingRanges(from, to uint64, coverage []CoverageRange) []CoverageRange {
	if from > to {
		return nil
	}

	if len(coverage) == 0 {
		return []CoverageRange{{FromBlock: from, ToBlock: to}}
	}

	var missing []CoverageRange
	currentStart := from

	for _, r := range coverage {
		if r.ToBlock < currentStart {
			continue
		}

		// gap before this range
		if r.FromBlock > currentStart {
			missing = append(missing, CoverageRange{
				FromBlock: currentStart,
				ToBlock:   min(r.FromBlock-1, to),
			})
		}

		if r.ToBlock >= to {
			return missing
		}
		currentStart = r.ToBlock + 1
	}

	if currentStart <= to {
		missing = append(missing, CoverageRange{
			FromBlock: currentStart,
			ToBlock:   to,
		})
	}

	return missing
}

// mergeRanges collapses adjacent ranges. Input must be sorted and non-overlapping.
func mergeRanges(ranges []CoverageRange) []CoverageRange {
	if len(ranges) == 0 {
		return ranges
	}

	merged := []CoverageRange{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if last.ToBlock+1 == r.FromBlock {
			last.ToBlock = r.ToBlock
			continue
		}
		merged = append(merged, r)
	}

	return merged
}

func sortRanges(ranges []CoverageRange) {
	slices.SortFunc(ranges, func(a, b CoverageRange) int {
		return cmp.Compare(a.FromBlock, b.FromBlock)
	})
}
