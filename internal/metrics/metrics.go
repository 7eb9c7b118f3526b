package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	OrdersAdmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridindexor_orders_admitted_total",
			Help: "Total number of unique orders admitted into the store",
		},
		[]string{"contract"},
	)

	SettlementsAdmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridindexor_settlements_admitted_total",
			Help: "Total number of unique settlements admitted into the store",
		},
		[]string{"contract"},
	)

	Duplicates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridindexor_duplicates_total",
			Help: "Total number of re-observed events dropped by dedup",
		},
		[]string{"contract", "kind"},
	)

	Evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridindexor_evictions_total",
			Help: "Total number of records evicted from the bounded store",
		},
		[]string{"contract", "kind"},
	)

	DecodeDiscards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridindexor_decode_discards_total",
			Help: "Total number of logs discarded by the decoder",
		},
		[]string{"contract", "reason"},
	)

	// Fetching metrics
	ChunksFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridindexor_chunks_fetched_total",
			Help: "Total number of block range chunks fetched successfully",
		},
		[]string{"contract"},
	)

	ChunksFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridindexor_chunks_failed_total",
			Help: "Total number of block range chunks skipped after a provider error",
		},
		[]string{"contract"},
	)

	LastProcessedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridindexor_last_processed_block",
			Help: "The polling watermark",
		},
		[]string{"contract"},
	)

	ChainHead = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridindexor_chain_head",
			Help: "The last chain head observed by the poll loop",
		},
		[]string{"contract"},
	)

	PollTickTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridindexor_poll_tick_duration_seconds",
			Help:    "Time taken by a single poll tick",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"contract"},
	)

	PollTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridindexor_poll_ticks_total",
			Help: "Total number of poll ticks by outcome",
		},
		[]string{"contract", "outcome"},
	)

	BackfillState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridindexor_backfill_state",
			Help: "Backfill state (0=pending, 1=running, 2=done)",
		},
		[]string{"contract"},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridindexor_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridindexor_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridindexor_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridindexor_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

// Backfill states reported by BackfillState.
const (
	BackfillPending = 0
	BackfillRunning = 1
	BackfillDone    = 2
)

func OrdersAdmittedInc(contract string) {
	OrdersAdmitted.WithLabelValues(contract).Inc()
}

func SettlementsAdmittedInc(contract string) {
	SettlementsAdmitted.WithLabelValues(contract).Inc()
}

func DuplicatesInc(contract, kind string) {
	Duplicates.WithLabelValues(contract, kind).Inc()
}

func EvictionsInc(contract, kind string) {
	Evictions.WithLabelValues(contract, kind).Inc()
}

func DecodeDiscardsInc(contract, reason string) {
	DecodeDiscards.WithLabelValues(contract, reason).Inc()
}

func ChunksFetchedInc(contract string) {
	ChunksFetched.WithLabelValues(contract).Inc()
}

func ChunksFailedInc(contract string) {
	ChunksFailed.WithLabelValues(contract).Inc()
}

func LastProcessedBlockSet(contract string, block uint64) {
	LastProcessedBlock.WithLabelValues(contract).Set(float64(block))
}

func ChainHeadSet(contract string, block uint64) {
	ChainHead.WithLabelValues(contract).Set(float64(block))
}

func PollTickTimeLog(contract string, duration time.Duration) {
	PollTickTime.WithLabelValues(contract).Observe(duration.Seconds())
}

func PollTicksInc(contract, outcome string) {
	PollTicks.WithLabelValues(contract, outcome).Inc()
}

func BackfillStateSet(contract string, state int) {
	BackfillState.WithLabelValues(contract).Set(float64(state))
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
// This should be called periodically (e.g., every 15 seconds).
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())

	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("total_alloc").Set(float64(m.TotalAlloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
