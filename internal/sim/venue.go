package sim

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/engine"
	"github.com/quantbridge/fix-client-core/internal/fixmsg"
)

// Venue is an in-process counterparty. It accepts the client's outbound
// messages as a transport, answers market data requests with a random-walk
// quote stream, and fills orders after a configurable delay.
type Venue struct {
	cfg    Config
	logger *zap.Logger
	rng    *rand.Rand

	// Outbound calls arrive on the engine's goroutines while Run delivers
	// from its own; pending decouples the two so delivery never happens
	// under the engine lock.
	pending chan *fixmsg.Message

	target *engine.Engine

	mu     sync.Mutex
	subs   map[int]string     // request id -> symbol
	prices map[string]float64 // symbol -> mid
}

// NewVenue creates a venue. Attach must be called before Run.
func NewVenue(cfg Config, logger *zap.Logger) *Venue {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Venue{
		cfg:     cfg,
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
		pending: make(chan *fixmsg.Message, 256),
		subs:    make(map[int]string),
		prices:  make(map[string]float64),
	}
}

// Attach sets the engine that receives the venue's inbound messages.
func (v *Venue) Attach(target *engine.Engine) {
	v.target = target
}

// Send implements engine.Transport. It may be called under the engine lock,
// so responses are queued and delivered by Run rather than handed back
// synchronously.
func (v *Venue) Send(msg *fixmsg.Message, session engine.SessionID) error {
	switch msg.Kind {
	case fixmsg.KindMarketDataRequest:
		v.subscribe(msg)

	case fixmsg.KindNewOrderSingle:
		v.fillOrder(msg)

	case fixmsg.KindMassQuoteAck:
		quoteID, _ := msg.Fields.String(fixmsg.TagQuoteID)
		v.logger.Debug("quote acknowledged", zap.String("quote_id", quoteID))

	default:
		v.logger.Warn("venue ignoring outbound message",
			zap.String("kind", string(msg.Kind)),
			zap.String("session", string(session)),
		)
	}
	return nil
}

func (v *Venue) subscribe(msg *fixmsg.Message) {
	reqID, ok := msg.Fields.Int(fixmsg.TagMDReqID)
	if !ok || msg.GroupCount() == 0 {
		v.logger.Warn("malformed market data request ignored")
		return
	}
	symbol, ok := msg.Group(0).String(fixmsg.TagSymbol)
	if !ok {
		v.logger.Warn("market data request without symbol ignored")
		return
	}

	v.mu.Lock()
	v.subs[reqID] = symbol
	if _, seeded := v.prices[symbol]; !seeded {
		v.prices[symbol] = 1.0 + v.rng.Float64()*0.5
	}
	v.mu.Unlock()

	v.logger.Info("subscription accepted",
		zap.Int("request_id", reqID),
		zap.String("symbol", symbol),
	)
}

// fillOrder confirms the order immediately and fills it after the configured
// delay. Half fills arrive as a partial followed by the final fill.
func (v *Venue) fillOrder(msg *fixmsg.Message) {
	clOrdID, ok := msg.Fields.Int(fixmsg.TagClOrdID)
	if !ok {
		v.logger.Warn("order without client order id ignored")
		return
	}
	symbol, _ := msg.Fields.String(fixmsg.TagSymbol)
	side, _ := msg.Fields.String(fixmsg.TagSide)
	ordType, _ := msg.Fields.String(fixmsg.TagOrdType)
	qty, _ := msg.Fields.Int(fixmsg.TagOrderQty)
	price, hasPrice := msg.Fields.Float(fixmsg.TagPrice)
	if !hasPrice {
		price = v.midPrice(symbol)
	}

	v.enqueue(v.buildReport(clOrdID, symbol, side, ordType, price, qty,
		fixmsg.OrdStatusNew, 0, qty))

	partial := qty > 1 && v.rng.Intn(2) == 0
	delay := v.cfg.FillDelay

	if partial {
		half := qty / 2
		time.AfterFunc(delay, func() {
			v.enqueue(v.buildReport(clOrdID, symbol, side, ordType, price, qty,
				fixmsg.OrdStatusPartiallyFilled, half, qty-half))
		})
		delay *= 2
	}
	time.AfterFunc(delay, func() {
		v.enqueue(v.buildReport(clOrdID, symbol, side, ordType, price, qty,
			fixmsg.OrdStatusFilled, qty, 0))
	})
}

func (v *Venue) buildReport(clOrdID int, symbol, side, ordType string, price float64, qty int, status fixmsg.OrdStatus, cumQty, leavesQty int) *fixmsg.Message {
	msg := fixmsg.New(fixmsg.KindExecutionReport)
	msg.Fields.SetInt(fixmsg.TagClOrdID, clOrdID)
	msg.Fields.Set(fixmsg.TagSymbol, symbol)
	msg.Fields.Set(fixmsg.TagSide, side)
	msg.Fields.Set(fixmsg.TagOrdType, ordType)
	msg.Fields.Set(fixmsg.TagOrdStatus, string(status))
	msg.Fields.SetFloat(fixmsg.TagPrice, price)
	msg.Fields.SetInt(fixmsg.TagOrderQty, qty)
	msg.Fields.SetInt(fixmsg.TagCumQty, cumQty)
	msg.Fields.SetInt(fixmsg.TagLeavesQty, leavesQty)
	msg.Fields.SetTime(fixmsg.TagTransactTime, time.Now())
	msg.Fields.SetTime(fixmsg.TagSendingTime, time.Now())
	return msg
}

func (v *Venue) midPrice(symbol string) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.prices[symbol]; ok {
		return p
	}
	return 1.0
}

func (v *Venue) enqueue(msg *fixmsg.Message) {
	select {
	case v.pending <- msg:
	default:
		v.logger.Warn("venue queue full, dropping message", zap.String("kind", string(msg.Kind)))
	}
}

// Run generates the quote stream and delivers queued messages until the
// context is canceled. It owns the only goroutine that touches the engine's
// inbound path.
func (v *Venue) Run(ctx context.Context) {
	ticker := time.NewTicker(v.cfg.TickInterval)
	defer ticker.Stop()

	quoteSeq := 0
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-v.pending:
			v.target.OnMessage(msg)
		case <-ticker.C:
			quoteSeq++
			for _, msg := range v.generateQuotes(quoteSeq) {
				v.deliver(msg)
			}
		}
	}
}

// generateQuotes advances every subscribed symbol's random walk and emits one
// quote message per symbol, alternating between mass quote and snapshot
// shapes the way mixed feeds do.
func (v *Venue) generateQuotes(seq int) []*fixmsg.Message {
	v.mu.Lock()
	defer v.mu.Unlock()

	msgs := make([]*fixmsg.Message, 0, len(v.subs))
	for reqID, symbol := range v.subs {
		mid := v.prices[symbol] + (v.rng.Float64()-0.5)*0.0008
		if mid < 0.002 {
			mid = 0.002
		}
		v.prices[symbol] = mid

		spread := mid * 0.0002
		bid, ask := mid-spread, mid+spread
		bidSize := 1 + v.rng.Intn(100)
		askSize := 1 + v.rng.Intn(100)

		var msg *fixmsg.Message
		if seq%2 == 0 {
			msg = fixmsg.New(fixmsg.KindMassQuote)
			if seq%10 == 0 {
				msg.Fields.Set(fixmsg.TagQuoteID, strconv.Itoa(seq))
			}
			msg.AddGroup(fixmsg.FieldMap{}.
				SetInt(fixmsg.TagQuoteSetID, reqID).
				SetInt(fixmsg.TagQuoteEntryID, 0).
				SetFloat(fixmsg.TagBidSpotRate, bid).
				SetFloat(fixmsg.TagOfferSpotRate, ask).
				SetInt(fixmsg.TagBidSize, bidSize).
				SetInt(fixmsg.TagOfferSize, askSize))
		} else {
			msg = fixmsg.New(fixmsg.KindSnapshotFullRefresh)
			msg.Fields.Set(fixmsg.TagSymbol, symbol)
			msg.AddGroup(fixmsg.FieldMap{}.
				SetInt(fixmsg.TagQuoteEntryID, 0).
				Set(fixmsg.TagMDEntryType, fixmsg.MDEntryTypeBid).
				SetFloat(fixmsg.TagMDEntryPx, bid).
				SetInt(fixmsg.TagMDEntrySize, bidSize))
			msg.AddGroup(fixmsg.FieldMap{}.
				SetInt(fixmsg.TagQuoteEntryID, 0).
				Set(fixmsg.TagMDEntryType, fixmsg.MDEntryTypeAsk).
				SetFloat(fixmsg.TagMDEntryPx, ask).
				SetInt(fixmsg.TagMDEntrySize, askSize))
		}
		msg.Fields.SetTime(fixmsg.TagSendingTime, time.Now())
		msgs = append(msgs, msg)
	}
	return msgs
}

// deliver applies fault injection to one generated quote message.
func (v *Venue) deliver(msg *fixmsg.Message) {
	if v.rng.Float64() < v.cfg.DropRate {
		v.logger.Debug("dropping quote message", zap.String("kind", string(msg.Kind)))
		return
	}

	if v.rng.Float64() < v.cfg.GarbleRate {
		v.garble(msg)
	}

	if v.rng.Float64() < v.cfg.DelayRate {
		delay := time.Duration(v.rng.Int63n(int64(v.cfg.MaxDelay) + 1))
		time.AfterFunc(delay, func() { v.enqueue(msg) })
		return
	}

	v.target.OnMessage(msg)
}

// garble strips a required field so the client has to reject the message.
func (v *Venue) garble(msg *fixmsg.Message) {
	switch msg.Kind {
	case fixmsg.KindMassQuote:
		if msg.GroupCount() > 0 {
			delete(msg.Group(0), fixmsg.TagQuoteSetID)
		}
	case fixmsg.KindSnapshotFullRefresh:
		delete(msg.Fields, fixmsg.TagSymbol)
	}
	v.logger.Debug("garbled quote message", zap.String("kind", string(msg.Kind)))
}
