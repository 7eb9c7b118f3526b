// Package eventstest builds raw grid contract logs for tests.
package eventstest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/GridIndexor/internal/events"
)

// Order describes an OrderPlaced log.
type Order struct {
	Block    uint64
	TxHash   common.Hash
	LogIndex uint
	Tick     uint8
	Maker    common.Address
	Amount   *big.Int
	IsYes    bool
	Epoch    uint32
}

// Settlement describes a TickSettled log.
type Settlement struct {
	Block         uint64
	TxHash        common.Hash
	LogIndex      uint
	Tick          uint8
	Epoch         uint32
	YesMatched    *big.Int
	NoMatched     *big.Int
	ClearingPrice *big.Int
}

// OrderLog encodes o as it would be returned by eth_getLogs.
func OrderLog(contract common.Address, o Order) types.Log {
	amount := o.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}

	data, err := events.NonIndexedInputs(events.OrderPlacedEvent).Pack(amount, o.IsYes, o.Epoch)
	if err != nil {
		panic(err)
	}

	return types.Log{
		Address: contract,
		Topics: []common.Hash{
			events.OrderPlacedID,
			common.BigToHash(new(big.Int).SetUint64(uint64(o.Tick))),
			common.BytesToHash(o.Maker.Bytes()),
		},
		Data:        data,
		BlockNumber: o.Block,
		TxHash:      o.TxHash,
		Index:       o.LogIndex,
	}
}

// SettlementLog encodes s as it would be returned by eth_getLogs.
func SettlementLog(contract common.Address, s Settlement) types.Log {
	data, err := events.NonIndexedInputs(events.TickSettledEvent).Pack(
		s.Epoch, orZero(s.YesMatched), orZero(s.NoMatched), orZero(s.ClearingPrice))
	if err != nil {
		panic(err)
	}

	return types.Log{
		Address: contract,
		Topics: []common.Hash{
			events.TickSettledID,
			common.BigToHash(new(big.Int).SetUint64(uint64(s.Tick))),
		},
		Data:        data,
		BlockNumber: s.Block,
		TxHash:      s.TxHash,
		Index:       s.LogIndex,
	}
}

// TxHash returns a deterministic transaction hash for n.
func TxHash(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
