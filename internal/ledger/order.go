package ledger

import (
	"time"

	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/fixmsg"
)

// OrderKind is the caller-facing order type combining direction and
// execution style.
type OrderKind string

const (
	BuyMarket  OrderKind = "buy_market"
	BuyLimit   OrderKind = "buy_limit"
	BuyStop    OrderKind = "buy_stop"
	SellMarket OrderKind = "sell_market"
	SellLimit  OrderKind = "sell_limit"
	SellStop   OrderKind = "sell_stop"
)

// Order is one outstanding order. The ledger owns it from submission until a
// terminal status removes it from the active set; the execution history keeps
// the reports that touched it.
type Order struct {
	ClOrdID int
	Symbol  string
	Side    fixmsg.Side
	Type    fixmsg.OrdType
	Kind    OrderKind

	Price     float64
	Deviation float64 // limit-order slippage tolerance (tag 10001)

	// Quantity starts at the requested quantity and is replaced by the
	// report's leaves quantity on partial fills.
	Quantity    int
	MinQuantity int
	TTLMillis   int

	// Valid is set at construction; invalid orders must never be submitted.
	Valid     bool
	Confirmed bool
	OpenTime  time.Time

	cumFilled int
}

// OrderSpec carries the caller-supplied order parameters. ClOrdID may be
// zero, in which case the ledger assigns one at submission.
type OrderSpec struct {
	ClOrdID     int
	Kind        OrderKind
	Symbol      string
	Price       float64
	Quantity    int
	MinQuantity int
	Deviation   float64
	TTLMillis   int
}

// NewOrder builds an order from its spec, deriving the FIX side and type
// codes and flagging invalid combinations. Market orders need no price;
// limit and stop orders must carry one.
func NewOrder(spec OrderSpec, logger *zap.Logger) *Order {
	o := &Order{
		ClOrdID:     spec.ClOrdID,
		Symbol:      spec.Symbol,
		Kind:        spec.Kind,
		Price:       spec.Price,
		Deviation:   spec.Deviation,
		Quantity:    spec.Quantity,
		MinQuantity: spec.MinQuantity,
		TTLMillis:   spec.TTLMillis,
		Valid:       true,
	}

	switch spec.Kind {
	case BuyMarket:
		o.Side, o.Type = fixmsg.SideBuy, fixmsg.OrdTypeMarket
	case BuyLimit:
		o.Side, o.Type = fixmsg.SideBuy, fixmsg.OrdTypeLimit
	case BuyStop:
		o.Side, o.Type = fixmsg.SideBuy, fixmsg.OrdTypeStop
	case SellMarket:
		o.Side, o.Type = fixmsg.SideSell, fixmsg.OrdTypeMarket
	case SellLimit:
		o.Side, o.Type = fixmsg.SideSell, fixmsg.OrdTypeLimit
	case SellStop:
		o.Side, o.Type = fixmsg.SideSell, fixmsg.OrdTypeStop
	default:
		o.Valid = false
		logger.Error("order kind could not be determined", zap.String("kind", string(spec.Kind)))
	}

	if o.Valid && o.Type != fixmsg.OrdTypeMarket && spec.Price == 0 {
		o.Valid = false
		logger.Error("price required for limit and stop orders",
			zap.String("kind", string(spec.Kind)),
			zap.Float64("price", spec.Price),
		)
	}

	return o
}
