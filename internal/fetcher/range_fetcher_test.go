package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/GridIndexor/internal/events"
	"github.com/goran-ethernal/GridIndexor/internal/events/eventstest"
	"github.com/goran-ethernal/GridIndexor/internal/logger"
	rpcmocks "github.com/goran-ethernal/GridIndexor/internal/rpc/mocks"
	"github.com/goran-ethernal/GridIndexor/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testMaker    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func setupTestRangeFetcher(t *testing.T, chunkSize uint64) (*RangeFetcher, *rpcmocks.EthClient, *store.EventStore) {
	t.Helper()

	mockRPC := rpcmocks.NewEthClient(t)
	eventStore := store.NewEventStore(store.Options{Label: t.Name()})

	log, err := logger.NewLogger("error", true)
	require.NoError(t, err)

	f := New(Config{Address: testContract, ChunkSize: chunkSize}, mockRPC, eventStore, log)

	return f, mockRPC, eventStore
}

func orderLog(block uint64, logIndex uint, tick uint8) types.Log {
	return eventstest.OrderLog(testContract, eventstest.Order{
		Block:    block,
		TxHash:   eventstest.TxHash(block),
		LogIndex: logIndex,
		Tick:     tick,
		Maker:    testMaker,
		Amount:   big.NewInt(1e16),
		IsYes:    logIndex%2 == 0,
		Epoch:    1,
	})
}

func settlementLog(block uint64, tick uint8, epoch uint32) types.Log {
	return eventstest.SettlementLog(testContract, eventstest.Settlement{
		Block:         block,
		TxHash:        eventstest.TxHash(block),
		LogIndex:      99,
		Tick:          tick,
		Epoch:         epoch,
		YesMatched:    big.NewInt(10),
		NoMatched:     big.NewInt(20),
		ClearingPrice: big.NewInt(50),
	})
}

// chainLogs serves eth_getLogs from a fixed set of logs, filtering by the query range.
func chainLogs(logs []types.Log) func(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return func(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
		from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
		var out []types.Log
		for _, l := range logs {
			if l.BlockNumber >= from && l.BlockNumber <= to {
				out = append(out, l)
			}
		}
		return out, nil
	}
}

func TestChunks(t *testing.T) {
	f, _, _ := setupTestRangeFetcher(t, 10)

	tests := []struct {
		name     string
		from, to uint64
		expected []CoverageRange
	}{
		{name: "empty when from > to", from: 10, to: 9, expected: nil},
		{name: "single block", from: 5, to: 5, expected: []CoverageRange{{5, 5}}},
		{name: "exact chunk", from: 0, to: 9, expected: []CoverageRange{{0, 9}}},
		{
			name: "partial last chunk",
			from: 0, to: 24,
			expected: []CoverageRange{{0, 9}, {10, 19}, {20, 24}},
		},
		{
			name: "near max uint64",
			from: ^uint64(0) - 12, to: ^uint64(0),
			expected: []CoverageRange{{^uint64(0) - 12, ^uint64(0) - 3}, {^uint64(0) - 2, ^uint64(0)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, slices.Collect(f.Chunks(tt.from, tt.to)))
		})
	}
}

func TestChunks_EarlyStop(t *testing.T) {
	f, _, _ := setupTestRangeFetcher(t, 1)

	var seen int
	for range f.Chunks(0, 1000) {
		seen++
		if seen == 3 {
			break
		}
	}
	require.Equal(t, 3, seen)
}

func TestFetchRange_AdmitsOrdersAndSettlements(t *testing.T) {
	f, mockRPC, eventStore := setupTestRangeFetcher(t, 100)

	mockRPC.EXPECT().GetLogs(mock.Anything, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
		return q.FromBlock.Uint64() == 100 && q.ToBlock.Uint64() == 101 &&
			slices.Equal(q.Addresses, []common.Address{testContract}) &&
			slices.Equal(q.Topics[0], []common.Hash{events.OrderPlacedID, events.TickSettledID})
	})).Return([]types.Log{
		orderLog(100, 0, 1),
		orderLog(100, 1, 2),
		settlementLog(101, 1, 3),
		orderLog(101, 2, 2),
	}, nil).Once()

	result := f.FetchRange(context.Background(), 100, 101)

	require.True(t, result.Complete())
	require.Equal(t, []CoverageRange{{100, 101}}, result.Covered)
	require.Equal(t, 3, result.OrdersAdmitted)
	require.Equal(t, 1, result.SettlementsAdmitted)
	require.Zero(t, result.Discarded)
	to, ok := result.ContiguousTo()
	require.True(t, ok)
	require.Equal(t, uint64(101), to)

	recent := eventStore.RecentOrders(10)
	require.Len(t, recent, 3)
	// admitted in log order, returned newest first
	require.Equal(t, events.OrderID(eventstest.TxHash(101), 2, 101), recent[0].ID)
	require.Equal(t, events.OrderID(eventstest.TxHash(100), 0, 100), recent[2].ID)
	require.Len(t, eventStore.RecentSettlements(10), 1)
}

func TestFetchRange_SkipsMalformedLogs(t *testing.T) {
	f, mockRPC, eventStore := setupTestRangeFetcher(t, 100)

	broken := orderLog(100, 1, 1)
	broken.Topics = broken.Topics[:1]

	unknown := types.Log{Address: testContract, Topics: []common.Hash{{0xde, 0xad}}, BlockNumber: 100}

	mockRPC.EXPECT().GetLogs(mock.Anything, mock.Anything).Return([]types.Log{
		orderLog(100, 0, 1),
		broken,
		unknown,
		orderLog(100, 2, 1),
	}, nil).Once()

	result := f.FetchRange(context.Background(), 100, 100)

	require.True(t, result.Complete())
	require.Equal(t, 2, result.OrdersAdmitted)
	require.Equal(t, 2, result.Discarded)
	require.Equal(t, uint64(2), eventStore.TotalOrders())
}

func TestFetchRange_MiddleChunkFailure(t *testing.T) {
	f, mockRPC, eventStore := setupTestRangeFetcher(t, 10)

	mockRPC.EXPECT().GetLogs(mock.Anything, mock.Anything).RunAndReturn(
		func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			switch q.FromBlock.Uint64() {
			case 0:
				return []types.Log{orderLog(5, 0, 1)}, nil
			case 10:
				return nil, errors.New("503 service unavailable")
			case 20:
				return []types.Log{orderLog(25, 0, 2)}, nil
			}
			return nil, fmt.Errorf("unexpected range %d", q.FromBlock.Uint64())
		}).Times(3)

	result := f.FetchRange(context.Background(), 0, 29)

	require.False(t, result.Complete())
	require.Equal(t, []CoverageRange{{0, 9}, {20, 29}}, result.Covered)
	require.Equal(t, []CoverageRange{{10, 19}}, result.Failed)
	to, ok := result.ContiguousTo()
	require.True(t, ok)
	require.Equal(t, uint64(9), to)
	require.Equal(t, 2, result.OrdersAdmitted)

	recent := eventStore.RecentOrders(10)
	require.Len(t, recent, 2)
	require.Equal(t, uint64(25), recent[0].BlockNumber)
	require.Equal(t, uint64(5), recent[1].BlockNumber)
}

func TestFetchRange_TooManyResultsSkipsChunk(t *testing.T) {
	f, mockRPC, _ := setupTestRangeFetcher(t, 2000)

	mockRPC.EXPECT().GetLogs(mock.Anything, mock.Anything).Return(nil,
		errors.New("query returned more than 10000 results. Try with this block range [0x0, 0x3e7].")).Once()

	result := f.FetchRange(context.Background(), 0, 1999)

	require.Empty(t, result.Covered)
	require.Equal(t, []CoverageRange{{0, 1999}}, result.Failed)
	_, ok := result.ContiguousTo()
	require.False(t, ok)
}

func TestFetchRange_EmptyRange(t *testing.T) {
	f, _, _ := setupTestRangeFetcher(t, 10)

	result := f.FetchRange(context.Background(), 11, 10)

	require.True(t, result.Complete())
	require.Empty(t, result.Covered)
	require.Zero(t, result.OrdersAdmitted)
}

func TestFetchRange_CancelledContextMarksRestFailed(t *testing.T) {
	f, mockRPC, _ := setupTestRangeFetcher(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	mockRPC.EXPECT().GetLogs(mock.Anything, mock.Anything).RunAndReturn(
		func(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
			cancel()
			return []types.Log{orderLog(1, 0, 1)}, nil
		}).Once()

	result := f.FetchRange(ctx, 0, 39)

	require.Equal(t, []CoverageRange{{0, 9}}, result.Covered)
	require.Equal(t, []CoverageRange{{10, 39}}, result.Failed)
	to, ok := result.ContiguousTo()
	require.True(t, ok)
	require.Equal(t, uint64(9), to)
}

func TestFetchRange_DuplicatesAreNoOps(t *testing.T) {
	f, mockRPC, eventStore := setupTestRangeFetcher(t, 100)

	logs := []types.Log{orderLog(100, 0, 1), settlementLog(100, 1, 1)}
	mockRPC.EXPECT().GetLogs(mock.Anything, mock.Anything).RunAndReturn(chainLogs(logs)).Twice()

	first := f.FetchRange(context.Background(), 100, 100)
	second := f.FetchRange(context.Background(), 90, 110)

	require.Equal(t, 1, first.OrdersAdmitted)
	require.Equal(t, 1, first.SettlementsAdmitted)
	require.Zero(t, second.OrdersAdmitted)
	require.Zero(t, second.SettlementsAdmitted)
	require.Equal(t, 2, second.Duplicates)
	require.Equal(t, uint64(1), eventStore.TotalOrders())
}

func TestFetchRange_ChunkingMatchesSingleQuery(t *testing.T) {
	var logs []types.Log
	for b := uint64(0); b < 95; b += 3 {
		logs = append(logs, orderLog(b, uint(b%4), uint8(b%7)))
		if b%9 == 0 {
			logs = append(logs, settlementLog(b, uint8(b%7), uint32(b)))
		}
	}

	chunked, chunkedRPC, chunkedStore := setupTestRangeFetcher(t, 7)
	chunkedRPC.EXPECT().GetLogs(mock.Anything, mock.Anything).RunAndReturn(chainLogs(logs)).Times(14)

	whole, wholeRPC, wholeStore := setupTestRangeFetcher(t, 1000)
	wholeRPC.EXPECT().GetLogs(mock.Anything, mock.Anything).RunAndReturn(chainLogs(logs)).Once()

	chunked.FetchRange(context.Background(), 0, 94)
	whole.FetchRange(context.Background(), 0, 94)

	ids := func(s *store.EventStore) []string {
		var out []string
		for _, o := range s.RecentOrders(1000) {
			out = append(out, o.ID)
		}
		return out
	}
	keys := func(s *store.EventStore) []string {
		var out []string
		for _, st := range s.RecentSettlements(1000) {
			out = append(out, st.Key())
		}
		return out
	}

	require.Equal(t, ids(wholeStore), ids(chunkedStore))
	require.Equal(t, keys(wholeStore), keys(chunkedStore))
	require.Equal(t, wholeStore.TotalVolume().String(), chunkedStore.TotalVolume().String())
	require.Equal(t, wholeStore.OrdersPerBlock(), chunkedStore.OrdersPerBlock())
}

func TestEvents_IsLazy(t *testing.T) {
	f, mockRPC, _ := setupTestRangeFetcher(t, 10)

	mockRPC.EXPECT().GetLogs(mock.Anything, mock.Anything).Return([]types.Log{orderLog(1, 0, 1)}, nil).Once()

	for chunk := range f.Events(context.Background(), 0, 99) {
		require.NoError(t, chunk.Err)
		require.Len(t, chunk.Events, 1)
		require.Equal(t, events.KindOrder, chunk.Events[0].Kind)
		break
	}
}
