// Package analytics derives rolling statistics from an event store.
// Every function is a pure read recomputed on each call.
package analytics

import (
	"github.com/goran-ethernal/GridIndexor/internal/events"
	"github.com/goran-ethernal/GridIndexor/internal/store"
)

const (
	DefaultSeriesWindow = 50
	DefaultActiveWindow = 100
)

// Reader is the read side of the event store used by the aggregator. Stats
// must return a copy taken under a single lock.
type Reader interface {
	Stats(recentPartitions int) store.Stats
}

// Options bound the windows used by Snapshot.
type Options struct {
	SeriesWindow int
	ActiveWindow int
}

// MetricsSnapshot is the derived metrics view served to consumers.
type MetricsSnapshot struct {
	OrdersPerBlock     []int   `json:"ordersPerBlock"`
	TotalOrders        uint64  `json:"totalOrders"`
	TotalVolume        string  `json:"totalVolume"`
	ActiveTicks        int     `json:"activeTicks"`
	BlocksProcessed    uint64  `json:"blocksProcessed"`
	AvgOrdersPerBlock  float64 `json:"avgOrdersPerBlock"`
	LastProcessedBlock uint64  `json:"lastProcessedBlock"`
}

// OrdersPerBlockWindow returns the (block, count) pairs of the most recent
// window blocks that had orders, ascending by block. The series is sparse:
// blocks without orders are absent.
func OrdersPerBlockWindow(r Reader, window int) []store.BlockCount {
	return lastBlocks(r.Stats(0).Series, window)
}

// OrdersPerBlockSeries returns the counts of OrdersPerBlockWindow.
func OrdersPerBlockSeries(r Reader, window int) []int {
	return countsOf(OrdersPerBlockWindow(r, window))
}

// ActivePartitionCount counts distinct partitions among the last recent
// admitted orders, by insertion order.
func ActivePartitionCount(r Reader, recent int) int {
	if recent <= 0 {
		return 0
	}
	return distinctPartitions(r.Stats(recent).RecentPartitions)
}

// AverageOrdersPerBlock is the mean of the series, or 0 when it is empty.
func AverageOrdersPerBlock(series []int) float64 {
	if len(series) == 0 {
		return 0
	}

	total := 0
	for _, c := range series {
		total += c
	}
	return float64(total) / float64(len(series))
}

// Snapshot computes every metric from one consistent copy of the store.
// Zero options use the defaults.
func Snapshot(r Reader, opts Options) MetricsSnapshot {
	if opts.SeriesWindow <= 0 {
		opts.SeriesWindow = DefaultSeriesWindow
	}
	if opts.ActiveWindow <= 0 {
		opts.ActiveWindow = DefaultActiveWindow
	}

	st := r.Stats(opts.ActiveWindow)
	series := countsOf(lastBlocks(st.Series, opts.SeriesWindow))

	return MetricsSnapshot{
		OrdersPerBlock:     series,
		TotalOrders:        st.TotalOrders,
		TotalVolume:        events.FormatEther(st.TotalVolume),
		ActiveTicks:        distinctPartitions(st.RecentPartitions),
		BlocksProcessed:    st.BlocksObserved,
		AvgOrdersPerBlock:  AverageOrdersPerBlock(series),
		LastProcessedBlock: st.LastProcessedBlock,
	}
}

func lastBlocks(counts []store.BlockCount, window int) []store.BlockCount {
	if window <= 0 {
		return []store.BlockCount{}
	}
	if len(counts) > window {
		counts = counts[len(counts)-window:]
	}
	return counts
}

func countsOf(counts []store.BlockCount) []int {
	series := make([]int, len(counts))
	for i, c := range counts {
		series[i] = c.Count
	}
	return series
}

func distinctPartitions(partitions []uint8) int {
	var seen [256]bool
	count := 0
	for _, p := range partitions {
		if !seen[p] {
			seen[p] = true
			count++
		}
	}
	return count
}
