package store

import (
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/GridIndexor/internal/events"
	"github.com/stretchr/testify/require"
)

var oneUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func order(id string, partition uint8, block uint64, amount *big.Int) events.OrderRecord {
	return events.OrderRecord{
		ID:          id,
		Partition:   partition,
		Side:        events.SideYes,
		Amount:      amount,
		BlockNumber: block,
		ObservedAt:  time.Now(),
	}
}

func settlement(tx uint64, partition uint8, epoch uint32) events.SettlementRecord {
	return events.SettlementRecord{
		Partition:     partition,
		Epoch:         epoch,
		MatchedYes:    big.NewInt(1),
		MatchedNo:     big.NewInt(1),
		ClearingPrice: big.NewInt(50),
		TxHash:        common.BigToHash(new(big.Int).SetUint64(tx)),
	}
}

func TestAdmitOrder_SingleOrder(t *testing.T) {
	s := NewEventStore(Options{})

	o := order("tx1-0-100", 3, 100, oneUnit)
	require.True(t, s.AdmitOrder(o))

	recent := s.RecentOrders(10)
	require.Len(t, recent, 1)
	require.Equal(t, o.ID, recent[0].ID)
	require.Equal(t, uint8(3), recent[0].Partition)
	require.Equal(t, uint64(1), s.TotalOrders())
	require.Equal(t, "1.0", events.FormatEther(s.TotalVolume()))
}

func TestAdmitOrder_Idempotent(t *testing.T) {
	s := NewEventStore(Options{})

	o := order("tx1-0-100", 3, 100, oneUnit)
	require.True(t, s.AdmitOrder(o))
	require.False(t, s.AdmitOrder(o))

	require.Equal(t, uint64(1), s.TotalOrders())
	require.Equal(t, 0, oneUnit.Cmp(s.TotalVolume()))
	require.Len(t, s.RecentOrders(10), 1)
	require.Equal(t, []BlockCount{{Block: 100, Count: 1}}, s.OrdersPerBlock())
}

func TestAdmitOrder_EvictionKeepsCumulativeTotals(t *testing.T) {
	const maxEvents = 10
	s := NewEventStore(Options{MaxEvents: maxEvents})

	for i := range maxEvents + 1 {
		require.True(t, s.AdmitOrder(order(fmt.Sprintf("tx%d-0-%d", i, 100+i), 1, uint64(100+i), big.NewInt(2))))
	}

	require.Equal(t, maxEvents, s.OrderCount())
	require.Equal(t, uint64(maxEvents+1), s.TotalOrders())
	require.Equal(t, int64(2*(maxEvents+1)), s.TotalVolume().Int64())

	recent := s.RecentOrders(maxEvents)
	require.Len(t, recent, maxEvents)
	for _, o := range recent {
		require.NotEqual(t, "tx0-0-100", o.ID)
	}
	require.Equal(t, fmt.Sprintf("tx%d-0-%d", maxEvents, 100+maxEvents), recent[0].ID)

	// the evicted id left the seen-set along with the record
	s.mu.RLock()
	require.Len(t, s.seenOrders, maxEvents)
	_, seen := s.seenOrders["tx0-0-100"]
	s.mu.RUnlock()
	require.False(t, seen)
}

func TestAdmitOrder_DefaultCap(t *testing.T) {
	s := NewEventStore(Options{})

	for i := range DefaultMaxEvents + 1 {
		s.AdmitOrder(order(fmt.Sprintf("id-%d", i), 0, 1, big.NewInt(1)))
	}

	require.Equal(t, DefaultMaxEvents, s.OrderCount())
	require.Len(t, s.RecentOrders(DefaultMaxEvents), DefaultMaxEvents)
	require.Equal(t, uint64(DefaultMaxEvents+1), s.TotalOrders())
}

func TestCumulativeMonotonicity(t *testing.T) {
	s := NewEventStore(Options{MaxEvents: 5})

	unique := map[string]int64{}
	var prevOrders uint64
	prevVolume := new(big.Int)

	for i := range 40 {
		id := fmt.Sprintf("id-%d", i%13)
		amount := int64(i%13 + 1)
		if s.AdmitOrder(order(id, uint8(i%4), uint64(i), big.NewInt(amount))) {
			unique[fmt.Sprintf("%s/%d", id, i)] = amount
		}

		require.GreaterOrEqual(t, s.TotalOrders(), prevOrders)
		require.GreaterOrEqual(t, s.TotalVolume().Cmp(prevVolume), 0)
		prevOrders = s.TotalOrders()
		prevVolume = s.TotalVolume()
		require.LessOrEqual(t, s.OrderCount(), 5)
	}

	var sum int64
	for _, a := range unique {
		sum += a
	}
	require.Equal(t, uint64(len(unique)), s.TotalOrders())
	require.Equal(t, sum, s.TotalVolume().Int64())
}

func TestTotalVolume_ReturnsCopy(t *testing.T) {
	s := NewEventStore(Options{})
	s.AdmitOrder(order("a", 0, 1, big.NewInt(5)))

	v := s.TotalVolume()
	v.SetInt64(1000)

	require.Equal(t, int64(5), s.TotalVolume().Int64())
}

func TestAdmitSettlement(t *testing.T) {
	s := NewEventStore(Options{MaxEvents: 3})

	require.True(t, s.AdmitSettlement(settlement(1, 2, 1)))
	require.False(t, s.AdmitSettlement(settlement(1, 2, 1)))
	require.True(t, s.AdmitSettlement(settlement(1, 2, 2)))
	require.True(t, s.AdmitSettlement(settlement(1, 3, 2)))
	require.True(t, s.AdmitSettlement(settlement(2, 3, 2)))

	require.Equal(t, 3, s.SettlementCount())

	recent := s.RecentSettlements(10)
	require.Len(t, recent, 3)
	require.Equal(t, settlement(2, 3, 2).Key(), recent[0].Key())
	require.Equal(t, settlement(1, 2, 2).Key(), recent[2].Key())

	// the evicted key is forgotten so the seen-set stays bounded
	s.mu.RLock()
	require.Len(t, s.seenSettlements, 3)
	s.mu.RUnlock()
	require.True(t, s.AdmitSettlement(settlement(1, 2, 1)))
}

func TestRecent_Limits(t *testing.T) {
	s := NewEventStore(Options{})
	for i := range 5 {
		s.AdmitOrder(order(fmt.Sprintf("id-%d", i), 0, 1, big.NewInt(1)))
	}

	require.Empty(t, s.RecentOrders(0))
	require.Empty(t, s.RecentOrders(-1))
	require.Len(t, s.RecentOrders(3), 3)
	require.Len(t, s.RecentOrders(100), 5)
	require.Equal(t, "id-4", s.RecentOrders(1)[0].ID)
	require.Empty(t, s.RecentSettlements(10))
}

func TestOrdersPerBlock(t *testing.T) {
	s := NewEventStore(Options{})

	s.AdmitOrder(order("a", 0, 101, big.NewInt(1)))
	s.AdmitOrder(order("b", 0, 100, big.NewInt(1)))
	s.AdmitOrder(order("c", 0, 100, big.NewInt(1)))

	require.Equal(t, []BlockCount{{Block: 100, Count: 2}, {Block: 101, Count: 1}}, s.OrdersPerBlock())
	require.Equal(t, uint64(2), s.OrderBlocksObserved())
}

func TestOrdersPerBlock_WindowBounded(t *testing.T) {
	s := NewEventStore(Options{BlockWindow: 3})

	for b := uint64(1); b <= 5; b++ {
		s.AdmitOrder(order(fmt.Sprintf("id-%d", b), 0, b, big.NewInt(1)))
	}

	require.Equal(t, []BlockCount{{Block: 3, Count: 1}, {Block: 4, Count: 1}, {Block: 5, Count: 1}},
		s.OrdersPerBlock())
	require.Equal(t, uint64(5), s.OrderBlocksObserved())

	// a late block older than the window counts in the totals but not the series
	require.True(t, s.AdmitOrder(order("late", 0, 0, big.NewInt(1))))
	require.Len(t, s.OrdersPerBlock(), 3)
	require.Equal(t, uint64(6), s.TotalOrders())
	require.Equal(t, uint64(6), s.OrderBlocksObserved())

	// a block still in the window keeps counting
	require.True(t, s.AdmitOrder(order("gap", 0, 4, big.NewInt(1))))
	require.Equal(t, 2, s.OrdersPerBlock()[1].Count)
}

func TestOrderBlocksObserved_BackfillBelowFullWindow(t *testing.T) {
	s := NewEventStore(Options{})

	// the live loop fills the window first
	for b := uint64(1001); b <= 1050; b++ {
		s.AdmitOrder(order(fmt.Sprintf("live-%d", b), 0, b, big.NewInt(1)))
	}
	require.Equal(t, uint64(50), s.OrderBlocksObserved())

	// backfilled blocks arrive later, two orders each
	for b := uint64(900); b <= 909; b++ {
		for i := range 2 {
			require.True(t, s.AdmitOrder(order(fmt.Sprintf("bf-%d-%d", b, i), 0, b, big.NewInt(1))))
		}
	}

	require.Equal(t, uint64(60), s.OrderBlocksObserved())
	require.Equal(t, uint64(70), s.TotalOrders())

	series := s.OrdersPerBlock()
	require.Len(t, series, DefaultBlockWindow)
	require.Equal(t, uint64(1001), series[0].Block)
}

func TestRecentPartitions(t *testing.T) {
	s := NewEventStore(Options{})
	for i, p := range []uint8{5, 1, 2, 2, 3} {
		s.AdmitOrder(order(fmt.Sprintf("id-%d", i), p, 1, big.NewInt(1)))
	}

	require.Equal(t, []uint8{1, 2, 2, 3}, s.RecentPartitions(4))
	require.Equal(t, []uint8{5, 1, 2, 2, 3}, s.RecentPartitions(100))
	require.Empty(t, s.RecentPartitions(0))
}

func TestWatermark(t *testing.T) {
	s := NewEventStore(Options{Label: "test"})
	require.Zero(t, s.LastProcessedBlock())

	s.AdmitOrder(order("a", 0, 1, big.NewInt(1)))
	s.AdvanceWatermark(120)
	require.Equal(t, uint64(120), s.LastProcessedBlock())
}

func TestConcurrentAdmission(t *testing.T) {
	s := NewEventStore(Options{MaxEvents: 50})

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				// both producers see overlapping ids
				s.AdmitOrder(order(fmt.Sprintf("id-%d", i), uint8(w), uint64(i), big.NewInt(1)))
				s.AdmitSettlement(settlement(uint64(i), uint8(w%2), 1))
				_ = s.RecentOrders(10)
			}
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, s.OrderCount(), 50)
	require.LessOrEqual(t, s.SettlementCount(), 50)
	require.GreaterOrEqual(t, s.TotalOrders(), uint64(200))

	s.mu.RLock()
	require.Len(t, s.seenOrders, s.orders.len())
	require.Len(t, s.seenSettlements, s.settlements.len())
	s.mu.RUnlock()
}

func TestStats_ConsistentUnderConcurrentAdmission(t *testing.T) {
	const blocks = 2000
	s := NewEventStore(Options{BlockWindow: blocks})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for b := uint64(1); b <= blocks; b++ {
			s.AdmitOrder(order(fmt.Sprintf("id-%d", b), uint8(b), b, big.NewInt(1)))
			s.AdvanceWatermark(b)
		}
	}()

	for {
		st := s.Stats(10)

		// one order per block, so every aggregate must agree
		require.Len(t, st.Series, int(st.TotalOrders))
		require.Equal(t, st.TotalOrders, st.BlocksObserved)
		require.Equal(t, st.TotalOrders, st.TotalVolume.Uint64())
		require.Len(t, st.RecentPartitions, int(min(st.TotalOrders, 10)))
		if st.TotalOrders > 0 {
			require.Equal(t, st.TotalOrders, st.Series[len(st.Series)-1].Block)
			require.Equal(t, uint8(st.TotalOrders), st.RecentPartitions[len(st.RecentPartitions)-1])
		}

		select {
		case <-done:
			final := s.Stats(10)
			require.Equal(t, uint64(blocks), final.TotalOrders)
			require.Equal(t, uint64(blocks), final.LastProcessedBlock)
			return
		default:
		}
	}
}

func TestStats_ReturnsCopies(t *testing.T) {
	s := NewEventStore(Options{})
	s.AdmitOrder(order("a", 3, 7, big.NewInt(5)))

	st := s.Stats(5)
	st.TotalVolume.SetInt64(0)
	st.Series[0].Count = 99
	st.RecentPartitions[0] = 0

	again := s.Stats(5)
	require.Equal(t, int64(5), again.TotalVolume.Int64())
	require.Equal(t, []BlockCount{{Block: 7, Count: 1}}, again.Series)
	require.Equal(t, []uint8{3}, again.RecentPartitions)
	require.Empty(t, s.Stats(0).RecentPartitions)
}
