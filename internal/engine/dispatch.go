package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/book"
	"github.com/quantbridge/fix-client-core/internal/fixmsg"
	"github.com/quantbridge/fix-client-core/internal/ledger"
	"github.com/quantbridge/fix-client-core/internal/registry"
)

// OnMessage routes one decoded inbound message. Unrecognized kinds and
// malformed units of work are logged and skipped; nothing here halts the
// process.
func (e *Engine) OnMessage(msg *fixmsg.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()

	eventTime, ok := msg.Fields.Time(fixmsg.TagSendingTime)
	if !ok {
		eventTime = time.Now().UTC()
	}

	switch msg.Kind {
	case fixmsg.KindMassQuote:
		e.handleMassQuote(msg, eventTime)

	case fixmsg.KindSnapshotFullRefresh:
		e.handleSnapshotRefresh(msg, eventTime)

	case fixmsg.KindIncrementalRefresh:
		e.logger.Info("market data incremental refresh")

	case fixmsg.KindExecutionReport:
		e.handleExecutionReport(msg, eventTime)

	case fixmsg.KindOrderCancelReject:
		// The cancel failed, so the active set is already correct. A
		// successful cancel arrives as an execution report.
		clOrdID, _ := msg.Fields.Int(fixmsg.TagClOrdID)
		e.logger.Warn("order cancel request rejected", zap.Int("cl_ord_id", clOrdID))

	case fixmsg.KindTradingSessionStatus:
		e.logger.Info("trading session status received")

	case fixmsg.KindMarketDataRequestReject:
		text, _ := msg.Fields.String(fixmsg.TagText)
		e.logger.Warn("market data request rejected", zap.String("text", text))

	default:
		e.logger.Warn("unrecognized message kind", zap.String("kind", string(msg.Kind)))
	}
}

// handleMassQuote processes an aggregated quote set: each repeating entry
// carries a request id plus bid, ask and sizes for one depth.
func (e *Engine) handleMassQuote(msg *fixmsg.Message, eventTime time.Time) {
	for i := 0; i < msg.GroupCount(); i++ {
		g := msg.Group(i)

		reqID, ok := g.Int(fixmsg.TagQuoteSetID)
		if !ok {
			e.logger.Warn("mass quote entry without quote set id dropped")
			continue
		}
		symbol, err := e.registry.Resolve(registry.RequestID(reqID))
		if err != nil {
			e.logger.Error("mass quote entry dropped",
				zap.Int("request_id", reqID),
				zap.Error(err),
			)
			continue
		}

		depth := -1
		if d, ok := g.Int(fixmsg.TagQuoteEntryID); ok {
			depth = d
		}
		var frag book.Fragment
		frag.Bid, _ = g.Float(fixmsg.TagBidSpotRate)
		frag.Ask, _ = g.Float(fixmsg.TagOfferSpotRate)
		frag.BidSize, _ = g.Int(fixmsg.TagBidSize)
		frag.AskSize, _ = g.Int(fixmsg.TagOfferSize)

		e.applyLevel(eventTime, symbol, depth, frag)
	}

	// A mass quote carrying a QuoteID must be acknowledged immediately.
	if quoteID, ok := msg.Fields.String(fixmsg.TagQuoteID); ok {
		e.send(buildMassQuoteAck(quoteID), e.quoteSession)
	}
}

// handleSnapshotRefresh processes a snapshot/full refresh: the symbol is
// carried directly and each repeating entry holds exactly one side.
func (e *Engine) handleSnapshotRefresh(msg *fixmsg.Message, eventTime time.Time) {
	symbol, ok := msg.Fields.String(fixmsg.TagSymbol)
	if !ok {
		e.logger.Warn("snapshot refresh without symbol dropped")
		return
	}

	for i := 0; i < msg.GroupCount(); i++ {
		g := msg.Group(i)

		depth := -1
		if d, ok := g.Int(fixmsg.TagQuoteEntryID); ok {
			depth = d
		}
		entryType, _ := g.String(fixmsg.TagMDEntryType)
		price, _ := g.Float(fixmsg.TagMDEntryPx)
		size, _ := g.Int(fixmsg.TagMDEntrySize)

		var frag book.Fragment
		switch entryType {
		case fixmsg.MDEntryTypeBid:
			frag.Bid, frag.BidSize = price, size
		case fixmsg.MDEntryTypeAsk:
			frag.Ask, frag.AskSize = price, size
		default:
			e.logger.Warn("snapshot entry with unknown side dropped",
				zap.String("symbol", symbol),
				zap.String("entry_type", entryType),
			)
			continue
		}

		e.applyLevel(eventTime, symbol, depth, frag)
	}
}

// applyLevel folds one normalized fragment into the book and notifies the
// consumer exactly once per accepted update.
func (e *Engine) applyLevel(eventTime time.Time, symbol string, depth int, frag book.Fragment) {
	if !e.books.ApplyLevel(eventTime, symbol, depth, frag) {
		return
	}
	if e.consumer != nil {
		b, _ := e.books.Book(symbol)
		e.consumer.OnTick(Context{e}, symbol, b)
	}
}

func (e *Engine) handleExecutionReport(msg *fixmsg.Message, eventTime time.Time) {
	clOrdID, ok := msg.Fields.Int(fixmsg.TagClOrdID)
	if !ok {
		e.logger.Warn("execution report without client order id dropped")
		return
	}

	status, _ := msg.Fields.String(fixmsg.TagOrdStatus)
	side, _ := msg.Fields.String(fixmsg.TagSide)
	ordType, _ := msg.Fields.String(fixmsg.TagOrdType)
	symbol, _ := msg.Fields.String(fixmsg.TagSymbol)
	price, _ := msg.Fields.Float(fixmsg.TagPrice)
	orderQty, _ := msg.Fields.Int(fixmsg.TagOrderQty)
	minQty, _ := msg.Fields.Int(fixmsg.TagMinQty)
	cumQty, _ := msg.Fields.Int(fixmsg.TagCumQty)
	leavesQty, _ := msg.Fields.Int(fixmsg.TagLeavesQty)

	transactTime, ok := msg.Fields.Time(fixmsg.TagTransactTime)
	if !ok {
		// Canceled/rejected reports may omit tag 60.
		transactTime = eventTime
	}

	report := ledger.ExecutionReport{
		ClOrdID:      clOrdID,
		Symbol:       symbol,
		Side:         fixmsg.Side(side),
		Price:        price,
		OrdType:      fixmsg.OrdType(ordType),
		Status:       fixmsg.OrdStatus(status),
		OrderQty:     orderQty,
		MinQty:       minQty,
		CumQty:       cumQty,
		LeavesQty:    leavesQty,
		TransactTime: transactTime,
	}

	if err := e.ledger.ApplyStatus(report); err != nil {
		// Already logged and appended to history by the ledger. The order
		// may predate this process; skipping keeps a stale report from
		// crashing a live session.
		return
	}

	if e.consumer != nil {
		e.consumer.OnExecutionReport(Context{e}, report)
	}
}
