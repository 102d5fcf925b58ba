package ledger

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/fixmsg"
)

var (
	// ErrInvalidOrder rejects an order whose validity flag is false; the
	// caller must correct and resubmit, nothing is transmitted.
	ErrInvalidOrder = errors.New("order contains errors and cannot be submitted")
	// ErrDuplicateOrderID rejects a caller-supplied client order id that is
	// already open.
	ErrDuplicateOrderID = errors.New("an active order with this client order id already exists")
	// ErrUnknownOrder reports a status update for an id not in the active
	// set. The report is still logged to execution history; the condition is
	// reported, never fatal.
	ErrUnknownOrder = errors.New("client order id not found in active orders")
)

// Ledger tracks outstanding orders, applies lifecycle transitions from
// inbound execution reports, and maintains net positions per symbol. It is
// not safe for concurrent use by itself; the dispatch engine serializes
// access.
type Ledger struct {
	logger *zap.Logger
	store  *Store // optional durable execution history

	nextClOrdID int
	active      map[int]*Order
	positions   map[string]int
	history     []ExecutionReport
}

// New creates an empty ledger. store may be nil to keep history in memory
// only.
func New(logger *zap.Logger, store *Store) *Ledger {
	return &Ledger{
		logger:    logger,
		store:     store,
		active:    make(map[int]*Order),
		positions: make(map[string]int),
	}
}

// EnsurePosition records a zero net position for a symbol if none exists.
func (l *Ledger) EnsurePosition(symbol string) {
	if _, ok := l.positions[symbol]; !ok {
		l.positions[symbol] = 0
	}
}

// Position returns the net position for a symbol; absent entries are zero.
func (l *Ledger) Position(symbol string) int {
	return l.positions[symbol]
}

// NextClientOrderID returns the next client order id, skipping any value
// already present among active orders so an externally-supplied id or a
// counter reset can never produce a collision with a live order.
func (l *Ledger) NextClientOrderID() int {
	l.nextClOrdID++
	for {
		if _, open := l.active[l.nextClOrdID]; !open {
			break
		}
		l.nextClOrdID++
	}
	return l.nextClOrdID
}

// Submit records a valid order as active. Transmission is the caller's
// responsibility after a successful submit.
func (l *Ledger) Submit(o *Order) error {
	if !o.Valid {
		return ErrInvalidOrder
	}
	if _, open := l.active[o.ClOrdID]; open {
		return ErrDuplicateOrderID
	}
	l.active[o.ClOrdID] = o
	return nil
}

// ActiveOrder returns an order from the active set.
func (l *Ledger) ActiveOrder(clOrdID int) (*Order, bool) {
	o, ok := l.active[clOrdID]
	return o, ok
}

// ActiveCount returns the number of outstanding orders.
func (l *Ledger) ActiveCount() int {
	return len(l.active)
}

// History returns the accumulated execution reports.
func (l *Ledger) History() []ExecutionReport {
	return l.history
}

// ApplyStatus applies one execution report to the active set and net
// positions. Every report is appended to the execution history, including
// reports for unknown orders, which return ErrUnknownOrder without touching
// any other state.
func (l *Ledger) ApplyStatus(r ExecutionReport) error {
	l.record(r)

	o, ok := l.active[r.ClOrdID]
	if !ok {
		l.logger.Error("execution report for unknown order",
			zap.Int("cl_ord_id", r.ClOrdID),
			zap.String("status", string(r.Status)),
			zap.Int("active_orders", len(l.active)),
		)
		return ErrUnknownOrder
	}

	switch r.Status {
	case fixmsg.OrdStatusNew:
		o.Confirmed = true
		o.OpenTime = r.TransactTime
		l.logger.Info("order confirmed", zap.Int("cl_ord_id", r.ClOrdID))

	case fixmsg.OrdStatusPartiallyFilled:
		o.Quantity = r.LeavesQty
		l.addPosition(r.Symbol, r.Side, l.fillDelta(o, r))

	case fixmsg.OrdStatusFilled:
		delta := l.fillDelta(o, r)
		delete(l.active, r.ClOrdID)
		l.addPosition(r.Symbol, r.Side, delta)

	case fixmsg.OrdStatusCanceled, fixmsg.OrdStatusPendingCancel,
		fixmsg.OrdStatusRejected, fixmsg.OrdStatusExpired:
		delete(l.active, r.ClOrdID)
		l.logger.Info("order closed without fill",
			zap.Int("cl_ord_id", r.ClOrdID),
			zap.String("status", string(r.Status)),
		)

	default:
		// Unrecognized statuses are observed, not acted on.
		l.logger.Warn("unhandled order status",
			zap.Int("cl_ord_id", r.ClOrdID),
			zap.String("status", string(r.Status)),
		)
	}

	return nil
}

// fillDelta returns the newly filled quantity carried by this report. The
// cumulative quantity is authoritative when present; a final fill without it
// falls back to the order's remaining quantity.
func (l *Ledger) fillDelta(o *Order, r ExecutionReport) int {
	if r.CumQty > 0 {
		delta := r.CumQty - o.cumFilled
		if delta < 0 {
			delta = 0
		}
		o.cumFilled = r.CumQty
		return delta
	}
	if r.Status == fixmsg.OrdStatusFilled {
		return o.Quantity
	}
	return 0
}

func (l *Ledger) addPosition(symbol string, side fixmsg.Side, qty int) {
	if qty == 0 {
		return
	}
	switch side {
	case fixmsg.SideBuy:
		l.positions[symbol] += qty
	case fixmsg.SideSell:
		l.positions[symbol] -= qty
	}
}

func (l *Ledger) record(r ExecutionReport) {
	l.history = append(l.history, r)
	if l.store == nil {
		return
	}
	if err := l.store.Append(context.Background(), r); err != nil {
		l.logger.Error("failed to persist execution report",
			zap.Int("cl_ord_id", r.ClOrdID),
			zap.Error(err),
		)
	}
}
