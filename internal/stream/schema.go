// Package stream publishes market and order events to Kafka.
package stream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// TopicTicks carries top-of-book updates, keyed by symbol.
	TopicTicks = "market.ticks"

	// TopicOrders carries execution report events, keyed by symbol.
	TopicOrders = "orders.events"
)

// TickEvent is a top-of-book update published on TopicTicks.
type TickEvent struct {
	EventID   string    `json:"event_id"`
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	BidSize   int       `json:"bid_size"`
	AskSize   int       `json:"ask_size"`
	Timestamp time.Time `json:"timestamp"`
}

// ExecutionEvent is an order state change published on TopicOrders.
type ExecutionEvent struct {
	EventID    string    `json:"event_id"`
	ClOrdID    int       `json:"cl_ord_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Status     string    `json:"status"`
	Price      float64   `json:"price"`
	CumQty     int       `json:"cum_qty"`
	LeavesQty  int       `json:"leaves_qty"`
	Timestamp  time.Time `json:"timestamp"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewEventID returns a unique id for an outbound event.
func NewEventID() string {
	return uuid.NewString()
}
