package api

import (
	"time"

	"github.com/goran-ethernal/GridIndexor/internal/analytics"
	"github.com/goran-ethernal/GridIndexor/internal/events"
)

// Source is the read side of the indexer served by the API.
type Source interface {
	RecentOrders(limit int) []events.OrderRecord
	RecentSettlements(limit int) []events.SettlementRecord
	Metrics() analytics.MetricsSnapshot
	Status() Status
	MaxEvents() int
}

// Status describes the indexer lifecycle.
type Status struct {
	Enabled            bool   `json:"enabled"`
	Contract           string `json:"contract,omitempty"`
	State              string `json:"state"`
	BackfillTriggered  bool   `json:"backfillTriggered"`
	BackfillDone       bool   `json:"backfillDone"`
	LastProcessedBlock uint64 `json:"lastProcessedBlock"`
	Orders             int    `json:"orders"`
	Settlements        int    `json:"settlements"`
}

// OrderView is the JSON representation of an order.
type OrderView struct {
	ID              string `json:"id"`
	Tick            uint8  `json:"tick"`
	Side            string `json:"side"`
	Amount          string `json:"amount"`
	Maker           string `json:"maker"`
	Epoch           uint32 `json:"epoch"`
	BlockNumber     uint64 `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
	LogIndex        uint   `json:"logIndex"`
	Timestamp       int64  `json:"timestamp"`
}

// SettlementView is the JSON representation of a settlement.
type SettlementView struct {
	Tick            uint8  `json:"tick"`
	Epoch           uint32 `json:"epoch"`
	YesMatched      string `json:"yesMatched"`
	NoMatched       string `json:"noMatched"`
	ClearingPrice   string `json:"clearingPrice"`
	BlockNumber     uint64 `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
	Timestamp       int64  `json:"timestamp"`
}

// OrdersResponse is returned by the orders endpoint.
type OrdersResponse struct {
	Orders []OrderView `json:"orders"`
	Limit  int         `json:"limit"`
}

// SettlementsResponse is returned by the settlements endpoint.
type SettlementsResponse struct {
	Settlements []SettlementView `json:"settlements"`
	Limit       int              `json:"limit"`
}

// EventsResponse combines recent orders and settlements with the cumulative order count.
type EventsResponse struct {
	Orders      []OrderView      `json:"orders"`
	Settlements []SettlementView `json:"settlements"`
	Total       uint64           `json:"total"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Indexer   Status    `json:"indexer"`
}

// NewOrderView converts a stored order.
func NewOrderView(o events.OrderRecord) OrderView {
	return OrderView{
		ID:              o.ID,
		Tick:            o.Partition,
		Side:            o.Side.String(),
		Amount:          events.FormatEther(o.Amount),
		Maker:           o.Originator.Hex(),
		Epoch:           o.Epoch,
		BlockNumber:     o.BlockNumber,
		TransactionHash: o.TxHash.Hex(),
		LogIndex:        o.LogIndex,
		Timestamp:       o.ObservedAt.UnixMilli(),
	}
}

// NewSettlementView converts a stored settlement.
func NewSettlementView(s events.SettlementRecord) SettlementView {
	return SettlementView{
		Tick:            s.Partition,
		Epoch:           s.Epoch,
		YesMatched:      events.FormatEther(s.MatchedYes),
		NoMatched:       events.FormatEther(s.MatchedNo),
		ClearingPrice:   events.FormatInt(s.ClearingPrice),
		BlockNumber:     s.BlockNumber,
		TransactionHash: s.TxHash.Hex(),
		Timestamp:       s.ObservedAt.UnixMilli(),
	}
}

func orderViews(orders []events.OrderRecord) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, NewOrderView(o))
	}
	return views
}

func settlementViews(settlements []events.SettlementRecord) []SettlementView {
	views := make([]SettlementView, 0, len(settlements))
	for _, s := range settlements {
		views = append(views, NewSettlementView(s))
	}
	return views
}
