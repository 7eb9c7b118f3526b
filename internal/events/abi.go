package events

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	OrderPlacedEvent = "OrderPlaced"
	TickSettledEvent = "TickSettled"
)

// GridABI holds the two events the indexer consumes from the grid contract.
const GridABI = `[
	{"type":"event","name":"OrderPlaced","anonymous":false,"inputs":[
		{"name":"tick","type":"uint8","indexed":true},
		{"name":"maker","type":"address","indexed":true},
		{"name":"amount","type":"uint128","indexed":false},
		{"name":"isYes","type":"bool","indexed":false},
		{"name":"epoch","type":"uint32","indexed":false}
	]},
	{"type":"event","name":"TickSettled","anonymous":false,"inputs":[
		{"name":"tick","type":"uint8","indexed":true},
		{"name":"epoch","type":"uint32","indexed":false},
		{"name":"yesMatched","type":"uint128","indexed":false},
		{"name":"noMatched","type":"uint128","indexed":false},
		{"name":"clearingPrice","type":"uint256","indexed":false}
	]}
]`

var (
	gridABI = mustParseABI(GridABI)

	// OrderPlacedID is keccak256("OrderPlaced(uint8,address,uint128,bool,uint32)").
	OrderPlacedID = gridABI.Events[OrderPlacedEvent].ID
	// TickSettledID is keccak256("TickSettled(uint8,uint32,uint128,uint128,uint256)").
	TickSettledID = gridABI.Events[TickSettledEvent].ID
)

// Topics returns the topic filter matching both grid events in a single query.
func Topics() [][]common.Hash {
	return [][]common.Hash{{OrderPlacedID, TickSettledID}}
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// NonIndexedInputs returns the data-encoded inputs of the named grid event.
func NonIndexedInputs(eventName string) abi.Arguments {
	return gridABI.Events[eventName].Inputs.NonIndexed()
}
