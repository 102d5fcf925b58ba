package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/book"
	"github.com/quantbridge/fix-client-core/internal/fixmsg"
	"github.com/quantbridge/fix-client-core/internal/ledger"
)

type sentMessage struct {
	msg     *fixmsg.Message
	session SessionID
}

type fakeTransport struct {
	sent []sentMessage
	err  error
}

func (f *fakeTransport) Send(msg *fixmsg.Message, session SessionID) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{msg: msg, session: session})
	return nil
}

func (f *fakeTransport) lastKind() fixmsg.Kind {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].msg.Kind
}

type tickRecord struct {
	symbol string
	bid    float64
	ask    float64
}

type recordingConsumer struct {
	starts  int
	ticks   []tickRecord
	reports []ledger.ExecutionReport

	// onTick, when set, runs inside the tick callback to exercise
	// re-entrant requests.
	onTick func(ctx Context, symbol string)
}

func (r *recordingConsumer) OnStart(ctx Context) { r.starts++ }

func (r *recordingConsumer) OnTick(ctx Context, symbol string, b *book.Book) {
	r.ticks = append(r.ticks, tickRecord{symbol: symbol, bid: b.BidTOB, ask: b.AskTOB})
	if r.onTick != nil {
		r.onTick(ctx, symbol)
	}
}

func (r *recordingConsumer) OnExecutionReport(ctx Context, report ledger.ExecutionReport) {
	r.reports = append(r.reports, report)
}

func newTestEngine(t *testing.T, consumer Consumer) (*Engine, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{}
	eng := New(Config{
		Transport:  transport,
		Consumer:   consumer,
		StoreTicks: true,
	}, zap.NewNop())
	eng.BindQuoteSession("Q")
	eng.BindTradeSession("T", "demo")
	return eng, transport
}

func massQuote(reqID, depth int, bid, ask float64, bidSize, askSize int) *fixmsg.Message {
	msg := fixmsg.New(fixmsg.KindMassQuote)
	msg.AddGroup(fixmsg.FieldMap{}.
		SetInt(fixmsg.TagQuoteSetID, reqID).
		SetInt(fixmsg.TagQuoteEntryID, depth).
		SetFloat(fixmsg.TagBidSpotRate, bid).
		SetFloat(fixmsg.TagOfferSpotRate, ask).
		SetInt(fixmsg.TagBidSize, bidSize).
		SetInt(fixmsg.TagOfferSize, askSize))
	return msg
}

func TestOnStartFiresOnceWhenAllSessionsUp(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, _ := newTestEngine(t, consumer)

	eng.OnLogon("Q")
	assert.Equal(t, 0, consumer.starts, "trade session still down")
	assert.False(t, eng.Ready())

	eng.OnLogon("T")
	assert.Equal(t, 1, consumer.starts)
	assert.True(t, eng.Ready())

	// A reconnect must not trigger a second start.
	eng.OnLogout("Q")
	eng.OnLogon("Q")
	assert.Equal(t, 1, consumer.starts)
}

func TestOnSessionCreatedRoutesByQualifier(t *testing.T) {
	consumer := &recordingConsumer{}
	eng := New(Config{Transport: &fakeTransport{}, Consumer: consumer, StoreTicks: true}, zap.NewNop())

	eng.OnSessionCreated("Q", "quote", "")
	eng.OnSessionCreated("T", "Trade", "acct-7")
	eng.OnSessionCreated("X", "backoffice", "")

	eng.OnLogon("Q")
	eng.OnLogon("X")
	assert.Equal(t, 0, consumer.starts, "unbound session must not count")

	eng.OnLogon("T")
	assert.Equal(t, 1, consumer.starts)
}

func TestRequestMarketDataComposesSubscription(t *testing.T) {
	eng, transport := newTestEngine(t, &recordingConsumer{})

	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	require.Len(t, transport.sent, 1)
	sent := transport.sent[0]
	assert.Equal(t, SessionID("Q"), sent.session)
	assert.Equal(t, fixmsg.KindMarketDataRequest, sent.msg.Kind)
	require.Equal(t, 1, sent.msg.GroupCount())
	symbol, _ := sent.msg.Group(0).String(fixmsg.TagSymbol)
	assert.Equal(t, "EUR/USD", symbol)

	// Idempotent: the same request id goes out again.
	require.NoError(t, eng.RequestMarketData("EUR/USD"))
	first, _ := transport.sent[0].msg.Fields.Int(fixmsg.TagMDReqID)
	second, _ := transport.sent[1].msg.Fields.Int(fixmsg.TagMDReqID)
	assert.Equal(t, first, second)
}

func TestRequestMarketDataWithoutQuoteSession(t *testing.T) {
	transport := &fakeTransport{}
	eng := New(Config{Transport: transport, StoreTicks: true}, zap.NewNop())

	err := eng.RequestMarketData("EUR/USD")
	assert.ErrorIs(t, err, ErrNoQuoteSession)
	assert.Empty(t, transport.sent)
}

func TestMassQuoteUpdatesBookAndNotifies(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, _ := newTestEngine(t, consumer)
	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	eng.OnMessage(massQuote(0, 0, 1.1000, 1.1002, 50, 30))

	require.Len(t, consumer.ticks, 1)
	assert.Equal(t, "EUR/USD", consumer.ticks[0].symbol)
	assert.Equal(t, 1.1000, consumer.ticks[0].bid)
	assert.Equal(t, 1.1002, consumer.ticks[0].ask)
}

func TestMassQuoteUnknownRequestIDDropped(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, _ := newTestEngine(t, consumer)
	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	eng.OnMessage(massQuote(42, 0, 1.1000, 1.1002, 50, 30))
	assert.Empty(t, consumer.ticks)
}

func TestMassQuoteMissingQuoteSetIDDropped(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, _ := newTestEngine(t, consumer)
	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	msg := fixmsg.New(fixmsg.KindMassQuote)
	msg.AddGroup(fixmsg.FieldMap{}.SetFloat(fixmsg.TagBidSpotRate, 1.1))
	eng.OnMessage(msg)

	assert.Empty(t, consumer.ticks)
}

func TestMassQuoteWithQuoteIDIsAcknowledged(t *testing.T) {
	eng, transport := newTestEngine(t, &recordingConsumer{})
	require.NoError(t, eng.RequestMarketData("EUR/USD"))
	outbound := len(transport.sent)

	msg := massQuote(0, 0, 1.1000, 1.1002, 50, 30)
	msg.Fields.Set(fixmsg.TagQuoteID, "Q-77")
	eng.OnMessage(msg)

	require.Len(t, transport.sent, outbound+1)
	ack := transport.sent[len(transport.sent)-1]
	assert.Equal(t, fixmsg.KindMassQuoteAck, ack.msg.Kind)
	assert.Equal(t, SessionID("Q"), ack.session)
	quoteID, _ := ack.msg.Fields.String(fixmsg.TagQuoteID)
	assert.Equal(t, "Q-77", quoteID)
}

func TestSnapshotMergesOneSidedEntries(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, _ := newTestEngine(t, consumer)
	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	msg := fixmsg.New(fixmsg.KindSnapshotFullRefresh)
	msg.Fields.Set(fixmsg.TagSymbol, "EUR/USD")
	msg.AddGroup(fixmsg.FieldMap{}.
		SetInt(fixmsg.TagQuoteEntryID, 0).
		Set(fixmsg.TagMDEntryType, fixmsg.MDEntryTypeBid).
		SetFloat(fixmsg.TagMDEntryPx, 1.2000).
		SetInt(fixmsg.TagMDEntrySize, 40))
	msg.AddGroup(fixmsg.FieldMap{}.
		SetInt(fixmsg.TagQuoteEntryID, 0).
		Set(fixmsg.TagMDEntryType, fixmsg.MDEntryTypeAsk).
		SetFloat(fixmsg.TagMDEntryPx, 1.2003).
		SetInt(fixmsg.TagMDEntrySize, 25))
	eng.OnMessage(msg)

	// One callback per accepted entry, with the merged book visible.
	require.Len(t, consumer.ticks, 2)
	assert.Equal(t, 1.2000, consumer.ticks[1].bid)
	assert.Equal(t, 1.2003, consumer.ticks[1].ask)
}

func TestSnapshotWithoutSymbolDropped(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, _ := newTestEngine(t, consumer)
	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	msg := fixmsg.New(fixmsg.KindSnapshotFullRefresh)
	msg.AddGroup(fixmsg.FieldMap{}.
		Set(fixmsg.TagMDEntryType, fixmsg.MDEntryTypeBid).
		SetFloat(fixmsg.TagMDEntryPx, 1.2))
	eng.OnMessage(msg)

	assert.Empty(t, consumer.ticks)
}

func TestSendingTimeStampsTheTick(t *testing.T) {
	eng, _ := newTestEngine(t, &recordingConsumer{})
	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	sent := time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC)
	msg := massQuote(0, 0, 1.1, 1.2, 1, 1)
	msg.Fields.SetTime(fixmsg.TagSendingTime, sent)
	eng.OnMessage(msg)

	snapshot := eng.Snapshot()
	assert.Equal(t, 1, snapshot.Symbols)

	ctx := Context{eng}
	b, ok := ctx.Book("EUR/USD")
	require.True(t, ok)
	require.Len(t, b.Ticks, 1)
	assert.True(t, b.Ticks[0].Time.Equal(sent))
}

func TestSubmitOrderSendsNewOrderSingle(t *testing.T) {
	eng, transport := newTestEngine(t, &recordingConsumer{})

	err := eng.SubmitOrder(ledger.OrderSpec{
		Kind:      ledger.BuyLimit,
		Symbol:    "EUR/USD",
		Price:     1.1,
		Quantity:  10,
		Deviation: 0.0005,
		TTLMillis: 5000,
	})
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	sent := transport.sent[0]
	assert.Equal(t, fixmsg.KindNewOrderSingle, sent.msg.Kind)
	assert.Equal(t, SessionID("T"), sent.session)

	account, _ := sent.msg.Fields.String(fixmsg.TagAccount)
	assert.Equal(t, "demo", account)
	side, _ := sent.msg.Fields.String(fixmsg.TagSide)
	assert.Equal(t, string(fixmsg.SideBuy), side)
	ttl, _ := sent.msg.Fields.Int(fixmsg.TagTTLMillis)
	assert.Equal(t, 5000, ttl)
	deviation, _ := sent.msg.Fields.Float(fixmsg.TagDeviation)
	assert.Equal(t, 0.0005, deviation)
}

func TestSubmitOrderWithoutTradeSession(t *testing.T) {
	transport := &fakeTransport{}
	eng := New(Config{Transport: transport, StoreTicks: true}, zap.NewNop())
	eng.BindQuoteSession("Q")

	err := eng.SubmitOrder(ledger.OrderSpec{Kind: ledger.BuyMarket, Symbol: "EUR/USD", Quantity: 10})
	assert.ErrorIs(t, err, ErrNoTradeSession)
	assert.Empty(t, transport.sent)
}

func TestSubmitOrderRejectsInvalidSpec(t *testing.T) {
	eng, transport := newTestEngine(t, &recordingConsumer{})

	err := eng.SubmitOrder(ledger.OrderSpec{Kind: ledger.SellLimit, Symbol: "EUR/USD", Quantity: 10})
	assert.ErrorIs(t, err, ledger.ErrInvalidOrder)
	assert.Empty(t, transport.sent)
}

func TestExecutionReportReachesConsumer(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, transport := newTestEngine(t, consumer)

	require.NoError(t, eng.SubmitOrder(ledger.OrderSpec{Kind: ledger.BuyMarket, Symbol: "EUR/USD", Quantity: 10}))
	require.Len(t, transport.sent, 1)
	clOrdID, _ := transport.sent[0].msg.Fields.Int(fixmsg.TagClOrdID)

	msg := fixmsg.New(fixmsg.KindExecutionReport)
	msg.Fields.SetInt(fixmsg.TagClOrdID, clOrdID)
	msg.Fields.Set(fixmsg.TagSymbol, "EUR/USD")
	msg.Fields.Set(fixmsg.TagSide, string(fixmsg.SideBuy))
	msg.Fields.Set(fixmsg.TagOrdStatus, string(fixmsg.OrdStatusFilled))
	msg.Fields.SetInt(fixmsg.TagCumQty, 10)
	msg.Fields.SetInt(fixmsg.TagLeavesQty, 0)
	msg.Fields.SetTime(fixmsg.TagTransactTime, time.Now())
	eng.OnMessage(msg)

	require.Len(t, consumer.reports, 1)
	assert.Equal(t, clOrdID, consumer.reports[0].ClOrdID)
	assert.Equal(t, fixmsg.OrdStatusFilled, consumer.reports[0].Status)
	assert.Equal(t, 10, eng.Position("EUR/USD"))
	assert.Len(t, eng.ExecutionHistory(), 1)
}

func TestUnknownOrderReportSkipsCallback(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, _ := newTestEngine(t, consumer)

	msg := fixmsg.New(fixmsg.KindExecutionReport)
	msg.Fields.SetInt(fixmsg.TagClOrdID, 999)
	msg.Fields.Set(fixmsg.TagSymbol, "EUR/USD")
	msg.Fields.Set(fixmsg.TagOrdStatus, string(fixmsg.OrdStatusFilled))
	eng.OnMessage(msg)

	assert.Empty(t, consumer.reports)
	assert.Len(t, eng.ExecutionHistory(), 1, "history keeps the stray report")
}

func TestUnrecognizedKindIgnored(t *testing.T) {
	consumer := &recordingConsumer{}
	eng, _ := newTestEngine(t, consumer)

	eng.OnMessage(fixmsg.New(fixmsg.Kind("Z")))
	eng.OnMessage(fixmsg.New(fixmsg.KindTradingSessionStatus))
	eng.OnMessage(fixmsg.New(fixmsg.KindOrderCancelReject))
	eng.OnMessage(fixmsg.New(fixmsg.KindIncrementalRefresh))

	assert.Empty(t, consumer.ticks)
	assert.Empty(t, consumer.reports)
}

func TestConsumerCanSubmitFromTickCallback(t *testing.T) {
	consumer := &recordingConsumer{}
	consumer.onTick = func(ctx Context, symbol string) {
		if ctx.ActiveOrders() == 0 {
			err := ctx.SubmitOrder(ledger.OrderSpec{Kind: ledger.BuyMarket, Symbol: symbol, Quantity: 5})
			require.NoError(t, err)
		}
	}
	eng, transport := newTestEngine(t, consumer)
	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	eng.OnMessage(massQuote(0, 0, 1.1, 1.2, 1, 1))

	require.Len(t, consumer.ticks, 1)
	assert.Equal(t, fixmsg.KindNewOrderSingle, transport.lastKind())
	assert.Equal(t, 1, eng.Snapshot().ActiveOrders)
}

func TestMultiConsumerFansOut(t *testing.T) {
	a := &recordingConsumer{}
	b := &recordingConsumer{}
	eng, _ := newTestEngine(t, MultiConsumer{a, b})
	require.NoError(t, eng.RequestMarketData("EUR/USD"))

	eng.OnLogon("Q")
	eng.OnLogon("T")
	eng.OnMessage(massQuote(0, 0, 1.1, 1.2, 1, 1))

	assert.Equal(t, 1, a.starts)
	assert.Equal(t, 1, b.starts)
	assert.Len(t, a.ticks, 1)
	assert.Len(t, b.ticks, 1)
}
