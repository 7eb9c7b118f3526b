package events

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Side is the direction of an order.
type Side bool

const (
	SideYes Side = true
	SideNo  Side = false
)

func (s Side) String() string {
	if s == SideYes {
		return "YES"
	}
	return "NO"
}

// MarshalText renders the side as "YES" or "NO".
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OrderRecord is one decoded OrderPlaced event.
type OrderRecord struct {
	ID          string
	Partition   uint8
	Side        Side
	Amount      *big.Int
	Originator  common.Address
	Epoch       uint32
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	ObservedAt  time.Time
}

// OrderID derives the stable order identifier from the log position.
// Re-observing the same log always yields the same ID.
func OrderID(txHash common.Hash, logIndex uint, blockNumber uint64) string {
	return fmt.Sprintf("%s-%d-%d", txHash.Hex(), logIndex, blockNumber)
}

// SettlementRecord is one decoded TickSettled event.
type SettlementRecord struct {
	Partition     uint8
	Epoch         uint32
	MatchedYes    *big.Int
	MatchedNo     *big.Int
	ClearingPrice *big.Int
	BlockNumber   uint64
	TxHash        common.Hash
	ObservedAt    time.Time
}

// Key is the settlement dedup key.
func (s SettlementRecord) Key() string {
	return fmt.Sprintf("%s-%d-%d", s.TxHash.Hex(), s.Partition, s.Epoch)
}
