package events_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goran-ethernal/GridIndexor/internal/events"
	"github.com/goran-ethernal/GridIndexor/internal/events/eventstest"
	"github.com/stretchr/testify/require"
)

var (
	contract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	maker    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func TestEventIDs(t *testing.T) {
	require.Equal(t,
		crypto.Keccak256Hash([]byte("OrderPlaced(uint8,address,uint128,bool,uint32)")), events.OrderPlacedID)
	require.Equal(t,
		crypto.Keccak256Hash([]byte("TickSettled(uint8,uint32,uint128,uint128,uint256)")), events.TickSettledID)
	require.Equal(t, [][]common.Hash{{events.OrderPlacedID, events.TickSettledID}}, events.Topics())
}

func TestDecode_Order(t *testing.T) {
	now := time.Now()
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)

	log := eventstest.OrderLog(contract, eventstest.Order{
		Block:    100,
		TxHash:   eventstest.TxHash(1),
		LogIndex: 2,
		Tick:     3,
		Maker:    maker,
		Amount:   amount,
		IsYes:    true,
		Epoch:    7,
	})

	decoded := events.Decode(log, now)
	require.Equal(t, events.KindOrder, decoded.Kind)
	require.NoError(t, decoded.Err)
	require.Nil(t, decoded.Settlement)

	order := decoded.Order
	require.Equal(t, events.OrderID(eventstest.TxHash(1), 2, 100), order.ID)
	require.Equal(t, uint8(3), order.Partition)
	require.Equal(t, events.SideYes, order.Side)
	require.Equal(t, 0, amount.Cmp(order.Amount))
	require.Equal(t, maker, order.Originator)
	require.Equal(t, uint32(7), order.Epoch)
	require.Equal(t, uint64(100), order.BlockNumber)
	require.Equal(t, now, order.ObservedAt)
}

func TestDecode_Settlement(t *testing.T) {
	log := eventstest.SettlementLog(contract, eventstest.Settlement{
		Block:         200,
		TxHash:        eventstest.TxHash(9),
		Tick:          4,
		Epoch:         12,
		YesMatched:    big.NewInt(500),
		NoMatched:     big.NewInt(400),
		ClearingPrice: big.NewInt(55),
	})

	decoded := events.Decode(log, time.Now())
	require.Equal(t, events.KindSettlement, decoded.Kind)

	s := decoded.Settlement
	require.Equal(t, uint8(4), s.Partition)
	require.Equal(t, uint32(12), s.Epoch)
	require.Equal(t, int64(500), s.MatchedYes.Int64())
	require.Equal(t, int64(400), s.MatchedNo.Int64())
	require.Equal(t, int64(55), s.ClearingPrice.Int64())
	require.Equal(t, uint64(200), s.BlockNumber)
	require.Equal(t, eventstest.TxHash(9).Hex()+"-4-12", s.Key())
}

func TestDecode_Discards(t *testing.T) {
	valid := eventstest.OrderLog(contract, eventstest.Order{Block: 1, Maker: maker, Amount: big.NewInt(1)})

	missingTopic := valid
	missingTopic.Topics = valid.Topics[:2]

	truncatedData := valid
	truncatedData.Data = valid.Data[:32]

	emptyData := valid
	emptyData.Data = nil

	tests := []struct {
		name   string
		log    types.Log
		reason string
	}{
		{name: "no topics", log: types.Log{}, reason: "malformed"},
		{name: "unknown event", log: types.Log{Topics: []common.Hash{{0x01}}}, reason: "unknown_event"},
		{name: "missing indexed field", log: missingTopic, reason: "missing_field"},
		{name: "truncated data", log: truncatedData, reason: "malformed"},
		{name: "empty data", log: emptyData, reason: "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := events.Decode(tt.log, time.Now())
			require.Equal(t, events.KindDiscard, decoded.Kind)
			require.Nil(t, decoded.Order)
			require.Nil(t, decoded.Settlement)
			require.Error(t, decoded.Err)
			require.Equal(t, tt.reason, events.Reason(decoded.Err))
		})
	}
}

func TestOrderID_Stable(t *testing.T) {
	a := events.OrderID(eventstest.TxHash(1), 0, 100)
	b := events.OrderID(eventstest.TxHash(1), 0, 100)
	require.Equal(t, a, b)
	require.NotEqual(t, a, events.OrderID(eventstest.TxHash(1), 1, 100))
}

func TestSide(t *testing.T) {
	require.Equal(t, "YES", events.SideYes.String())
	require.Equal(t, "NO", events.SideNo.String())

	text, err := events.SideNo.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "NO", string(text))
}
