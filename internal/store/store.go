package store

import (
	"math/big"
	"sync"

	"github.com/goran-ethernal/GridIndexor/internal/events"
	"github.com/goran-ethernal/GridIndexor/internal/metrics"
)

const (
	DefaultMaxEvents   = 1000
	DefaultBlockWindow = 50

	kindOrder      = "order"
	kindSettlement = "settlement"
)

// Options configure an EventStore.
type Options struct {
	// MaxEvents caps the retained orders and settlements separately.
	MaxEvents int
	// BlockWindow is the number of distinct blocks kept for per-block counts.
	BlockWindow int
	// Label identifies the store in metrics, usually the contract address.
	Label string
}

// EventStore is the bounded, deduplicated in-memory record of ingested grid
// events and their cumulative aggregates. It is safe for concurrent use.
type EventStore struct {
	mu sync.RWMutex

	label string

	orders          *ring[events.OrderRecord]
	settlements     *ring[events.SettlementRecord]
	seenOrders      map[string]struct{}
	seenSettlements map[string]struct{}
	perBlock        *blockWindow

	totalOrders        uint64
	totalVolume        *big.Int
	lastProcessedBlock uint64
}

// NewEventStore creates an empty store. Zero options fall back to defaults.
func NewEventStore(opts Options) *EventStore {
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = DefaultMaxEvents
	}
	if opts.BlockWindow <= 0 {
		opts.BlockWindow = DefaultBlockWindow
	}

	return &EventStore{
		label:           opts.Label,
		orders:          newRing[events.OrderRecord](opts.MaxEvents),
		settlements:     newRing[events.SettlementRecord](opts.MaxEvents),
		seenOrders:      make(map[string]struct{}, opts.MaxEvents),
		seenSettlements: make(map[string]struct{}, opts.MaxEvents),
		perBlock:        newBlockWindow(opts.BlockWindow),
		totalVolume:     new(big.Int),
	}
}

// AdmitOrder records the order unless its ID was already admitted and is
// still retained. It reports whether the order was new.
func (s *EventStore) AdmitOrder(order events.OrderRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.seenOrders[order.ID]; seen {
		metrics.DuplicatesInc(s.label, kindOrder)
		return false
	}

	s.seenOrders[order.ID] = struct{}{}
	if evicted, ok := s.orders.push(order); ok {
		delete(s.seenOrders, evicted.ID)
		metrics.EvictionsInc(s.label, kindOrder)
	}

	s.totalOrders++
	if order.Amount != nil {
		s.totalVolume.Add(s.totalVolume, order.Amount)
	}
	s.perBlock.add(order.BlockNumber)

	metrics.OrdersAdmittedInc(s.label)
	return true
}

// AdmitSettlement records the settlement unless its key was already admitted
// and is still retained. It reports whether the settlement was new.
func (s *EventStore) AdmitSettlement(settlement events.SettlementRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := settlement.Key()
	if _, seen := s.seenSettlements[key]; seen {
		metrics.DuplicatesInc(s.label, kindSettlement)
		return false
	}

	s.seenSettlements[key] = struct{}{}
	if evicted, ok := s.settlements.push(settlement); ok {
		delete(s.seenSettlements, evicted.Key())
		metrics.EvictionsInc(s.label, kindSettlement)
	}

	metrics.SettlementsAdmittedInc(s.label)
	return true
}

// RecentOrders returns up to limit orders, newest first.
func (s *EventStore) RecentOrders(limit int) []events.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.orders.newest(limit)
}

// RecentSettlements returns up to limit settlements, newest first.
func (s *EventStore) RecentSettlements(limit int) []events.SettlementRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settlements.newest(limit)
}

// RecentPartitions returns the partitions of the last n admitted orders in insertion order.
func (s *EventStore) RecentPartitions(n int) []uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.recentPartitions(n)
}

func (s *EventStore) recentPartitions(n int) []uint8 {
	orders := s.orders.last(n)
	out := make([]uint8, len(orders))
	for i, o := range orders {
		out[i] = o.Partition
	}
	return out
}

// OrdersPerBlock returns the retained per-block order counts, ascending by block.
func (s *EventStore) OrdersPerBlock() []BlockCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.perBlock.series()
}

// OrderBlocksObserved is the number of distinct blocks that carried an admitted order.
func (s *EventStore) OrderBlocksObserved() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.perBlock.observed
}

// TotalOrders is the number of unique orders ever admitted, including evicted ones.
func (s *EventStore) TotalOrders() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.totalOrders
}

// TotalVolume is the sum of all admitted order amounts. The result is a copy.
func (s *EventStore) TotalVolume() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return new(big.Int).Set(s.totalVolume)
}

// Stats is a point-in-time copy of the aggregates, taken under one lock.
type Stats struct {
	Series             []BlockCount
	RecentPartitions   []uint8
	TotalOrders        uint64
	TotalVolume        *big.Int
	BlocksObserved     uint64
	LastProcessedBlock uint64
}

// Stats copies every aggregate in one read so that no admission can land
// between them. recentPartitions bounds the partitions copied.
func (s *EventStore) Stats(recentPartitions int) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Series:             s.perBlock.series(),
		RecentPartitions:   s.recentPartitions(recentPartitions),
		TotalOrders:        s.totalOrders,
		TotalVolume:        new(big.Int).Set(s.totalVolume),
		BlocksObserved:     s.perBlock.observed,
		LastProcessedBlock: s.lastProcessedBlock,
	}
}

// OrderCount and SettlementCount return the number of retained records.
func (s *EventStore) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.orders.len()
}

func (s *EventStore) SettlementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settlements.len()
}

// AdvanceWatermark sets the last processed block. Callers must not move it backwards.
func (s *EventStore) AdvanceWatermark(block uint64) {
	s.mu.Lock()
	s.lastProcessedBlock = block
	s.mu.Unlock()

	metrics.LastProcessedBlockSet(s.label, block)
}

// LastProcessedBlock returns the watermark.
func (s *EventStore) LastProcessedBlock() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastProcessedBlock
}
