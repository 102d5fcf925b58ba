package engine

import (
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/fixmsg"
	"github.com/quantbridge/fix-client-core/internal/ledger"
)

// requestMarketData registers the symbol, seeds its book and position, and
// sends a snapshot-plus-updates subscription on the quote session. Callers
// hold the engine lock.
func (e *Engine) requestMarketData(symbol string) error {
	reqID := e.registry.Register(symbol)
	e.books.Ensure(symbol)
	e.ledger.EnsurePosition(symbol)

	if e.quoteSession == "" {
		e.logger.Error("market data request not sent", zap.Error(ErrNoQuoteSession))
		return ErrNoQuoteSession
	}

	msg := fixmsg.New(fixmsg.KindMarketDataRequest)
	msg.Fields.SetInt(fixmsg.TagMDReqID, int(reqID))
	msg.Fields.Set(fixmsg.TagSubscriptionReqTyp, "1") // snapshot + updates
	msg.Fields.Set(fixmsg.TagMarketDepth, "0")        // full book
	msg.Fields.Set(fixmsg.TagMDUpdateType, "1")       // incremental refresh
	msg.AddGroup(fixmsg.FieldMap{fixmsg.TagSymbol: symbol})

	return e.send(msg, e.quoteSession)
}

// submitOrder validates and records a new order, then composes and sends the
// new-order request on the trade session. Callers hold the engine lock.
func (e *Engine) submitOrder(spec ledger.OrderSpec) error {
	o := ledger.NewOrder(spec, e.logger)
	if !o.Valid {
		e.logger.Error("order not sent", zap.Error(ledger.ErrInvalidOrder))
		return ledger.ErrInvalidOrder
	}

	if e.tradeSession == "" {
		e.logger.Error("order not sent", zap.Error(ErrNoTradeSession))
		return ErrNoTradeSession
	}

	if o.ClOrdID == 0 {
		o.ClOrdID = e.ledger.NextClientOrderID()
	}

	if err := e.ledger.Submit(o); err != nil {
		e.logger.Error("order not sent",
			zap.Int("cl_ord_id", o.ClOrdID),
			zap.Error(err),
		)
		return err
	}

	return e.send(buildNewOrderSingle(o, e.account), e.tradeSession)
}

// send hands a composed message to the transport. A stale session handle is
// reported and skipped, never fatal.
func (e *Engine) send(msg *fixmsg.Message, session SessionID) error {
	if err := e.transport.Send(msg, session); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			e.logger.Error("session not found",
				zap.String("session", string(session)),
				zap.String("kind", string(msg.Kind)),
			)
		} else {
			e.logger.Error("send failed",
				zap.String("session", string(session)),
				zap.String("kind", string(msg.Kind)),
				zap.Error(err),
			)
		}
		return err
	}
	return nil
}

// buildMassQuoteAck echoes the mass quote's QuoteID back to the venue.
func buildMassQuoteAck(quoteID string) *fixmsg.Message {
	msg := fixmsg.New(fixmsg.KindMassQuoteAck)
	msg.Fields.Set(fixmsg.TagQuoteID, quoteID)
	return msg
}

// buildNewOrderSingle composes a new-order request from a validated order.
func buildNewOrderSingle(o *ledger.Order, account string) *fixmsg.Message {
	msg := fixmsg.New(fixmsg.KindNewOrderSingle)
	msg.Fields.Set(fixmsg.TagClOrdID, strconv.Itoa(o.ClOrdID))
	msg.Fields.Set(fixmsg.TagAccount, account)
	msg.Fields.Set(fixmsg.TagSymbol, o.Symbol)
	msg.Fields.Set(fixmsg.TagSide, string(o.Side))
	msg.Fields.SetInt(fixmsg.TagOrderQty, o.Quantity)
	msg.Fields.Set(fixmsg.TagOrdType, string(o.Type))

	// Market orders need no price.
	if o.Price != 0 {
		msg.Fields.SetFloat(fixmsg.TagPrice, o.Price)
	}

	msg.Fields.SetInt(fixmsg.TagTTLMillis, o.TTLMillis)

	// Deviation (maximum slippage) only applies to limit orders.
	if o.Type == fixmsg.OrdTypeLimit {
		msg.Fields.SetFloat(fixmsg.TagDeviation, o.Deviation)
	}

	msg.Fields.SetTime(fixmsg.TagTransactTime, time.Now())
	return msg
}
