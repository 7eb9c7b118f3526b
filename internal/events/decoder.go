package events

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrUnknownEvent is returned for logs whose topic0 is not a grid event.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrMalformedLog is returned when topics or data cannot be ABI decoded.
	ErrMalformedLog = errors.New("malformed log")
	// ErrMissingField is returned when a decoded field is absent or has an unexpected type.
	ErrMissingField = errors.New("missing field")
)

// Kind tags the outcome of decoding a single log.
type Kind int

const (
	KindDiscard Kind = iota
	KindOrder
	KindSettlement
)

func (k Kind) String() string {
	switch k {
	case KindOrder:
		return "order"
	case KindSettlement:
		return "settlement"
	default:
		return "discard"
	}
}

// Decoded is the tagged result of decoding a log. Exactly one of Order or
// Settlement is set unless Kind is KindDiscard, in which case Err says why.
type Decoded struct {
	Kind       Kind
	Order      *OrderRecord
	Settlement *SettlementRecord
	Err        error
}

func discard(err error) Decoded {
	return Decoded{Kind: KindDiscard, Err: err}
}

// Decode turns a raw log into a domain record. It never fails: logs that
// cannot be decoded come back as KindDiscard.
func Decode(log types.Log, observedAt time.Time) Decoded {
	if len(log.Topics) == 0 {
		return discard(fmt.Errorf("%w: log has no topics", ErrMalformedLog))
	}

	switch log.Topics[0] {
	case OrderPlacedID:
		order, err := decodeOrder(log, observedAt)
		if err != nil {
			return discard(err)
		}
		return Decoded{Kind: KindOrder, Order: order}
	case TickSettledID:
		settlement, err := decodeSettlement(log, observedAt)
		if err != nil {
			return discard(err)
		}
		return Decoded{Kind: KindSettlement, Settlement: settlement}
	default:
		return discard(fmt.Errorf("%w: topic %s", ErrUnknownEvent, log.Topics[0].Hex()))
	}
}

func decodeOrder(log types.Log, observedAt time.Time) (*OrderRecord, error) {
	fields, err := unpack(OrderPlacedEvent, log)
	if err != nil {
		return nil, err
	}

	tick, err := field[uint8](fields, "tick")
	if err != nil {
		return nil, err
	}
	maker, err := field[common.Address](fields, "maker")
	if err != nil {
		return nil, err
	}
	amount, err := field[*big.Int](fields, "amount")
	if err != nil {
		return nil, err
	}
	isYes, err := field[bool](fields, "isYes")
	if err != nil {
		return nil, err
	}
	epoch, err := field[uint32](fields, "epoch")
	if err != nil {
		return nil, err
	}

	return &OrderRecord{
		ID:          OrderID(log.TxHash, log.Index, log.BlockNumber),
		Partition:   tick,
		Side:        Side(isYes),
		Amount:      amount,
		Originator:  maker,
		Epoch:       epoch,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
		ObservedAt:  observedAt,
	}, nil
}

func decodeSettlement(log types.Log, observedAt time.Time) (*SettlementRecord, error) {
	fields, err := unpack(TickSettledEvent, log)
	if err != nil {
		return nil, err
	}

	tick, err := field[uint8](fields, "tick")
	if err != nil {
		return nil, err
	}
	epoch, err := field[uint32](fields, "epoch")
	if err != nil {
		return nil, err
	}
	yesMatched, err := field[*big.Int](fields, "yesMatched")
	if err != nil {
		return nil, err
	}
	noMatched, err := field[*big.Int](fields, "noMatched")
	if err != nil {
		return nil, err
	}
	clearingPrice, err := field[*big.Int](fields, "clearingPrice")
	if err != nil {
		return nil, err
	}

	return &SettlementRecord{
		Partition:     tick,
		Epoch:         epoch,
		MatchedYes:    yesMatched,
		MatchedNo:     noMatched,
		ClearingPrice: clearingPrice,
		BlockNumber:   log.BlockNumber,
		TxHash:        log.TxHash,
		ObservedAt:    observedAt,
	}, nil
}

// unpack decodes indexed fields from topics and the rest from data into one map.
func unpack(eventName string, log types.Log) (map[string]any, error) {
	event := gridABI.Events[eventName]

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}

	if len(log.Topics) != len(indexed)+1 {
		return nil, fmt.Errorf("%w: %s expects %d topics, got %d",
			ErrMissingField, eventName, len(indexed)+1, len(log.Topics))
	}

	fields := make(map[string]any, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: %s topics: %w", ErrMalformedLog, eventName, err)
	}

	if err := NonIndexedInputs(eventName).UnpackIntoMap(fields, log.Data); err != nil {
		return nil, fmt.Errorf("%w: %s data: %w", ErrMalformedLog, eventName, err)
	}

	return fields, nil
}

func field[T any](fields map[string]any, name string) (T, error) {
	var zero T

	raw, ok := fields[name]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrMissingField, name)
	}

	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has type %T", ErrMissingField, name, raw)
	}

	return v, nil
}

// Reason is a short label for a discard, used in metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrMalformedLog):
		return "malformed"
	default:
		return "other"
	}
}
