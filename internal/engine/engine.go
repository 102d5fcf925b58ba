// Package engine routes decoded FIX messages into the registry, book
// aggregator and order ledger, and drives a single consumer with fully
// serialized callbacks. One mutex guards all shared state: a tick update and
// an execution-report update can never interleave their callbacks, no matter
// which session's goroutine delivered the message.
package engine

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/book"
	"github.com/quantbridge/fix-client-core/internal/fixmsg"
	"github.com/quantbridge/fix-client-core/internal/ledger"
	"github.com/quantbridge/fix-client-core/internal/registry"
)

var (
	// ErrNoQuoteSession reports an outbound quote-side request before the
	// quote session handle is bound.
	ErrNoQuoteSession = errors.New("quote session not bound")
	// ErrNoTradeSession reports an order submission before the trade session
	// handle is bound; the order is not marked submitted.
	ErrNoTradeSession = errors.New("trade session not bound")
	// ErrSessionNotFound is returned by transports when a session handle is
	// stale or unknown. Reported, never fatal.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionID identifies one FIX session at the transport layer.
type SessionID string

// Transport carries composed outbound messages to a peer. The engine decides
// what to send; how bytes reach the venue is the transport's problem.
type Transport interface {
	Send(msg *fixmsg.Message, session SessionID) error
}

// Consumer receives ordered callbacks from the engine. Callbacks are invoked
// one at a time, never concurrently, and run inside the engine's
// serialization domain: use the Context they receive rather than the Engine's
// public methods to issue requests from within a callback.
type Consumer interface {
	// OnStart runs once after every bound session has logged on. Consumers
	// typically issue RequestMarketData calls here.
	OnStart(ctx Context)
	// OnTick runs after every accepted book update.
	OnTick(ctx Context, symbol string, b *book.Book)
	// OnExecutionReport runs after every processed status update.
	OnExecutionReport(ctx Context, report ledger.ExecutionReport)
}

// Config wires the engine's collaborators.
type Config struct {
	Transport  Transport
	Consumer   Consumer
	StoreTicks bool
	Flusher    *book.Flusher
	HistoryDB  *ledger.Store
}

// Engine is the top-level coordinator.
type Engine struct {
	mu     sync.Mutex
	logger *zap.Logger

	transport Transport
	consumer  Consumer

	registry *registry.Registry
	books    *book.Aggregator
	ledger   *ledger.Ledger

	account      string
	quoteSession SessionID
	tradeSession SessionID
	quoteUp      bool
	tradeUp      bool
	started      bool
}

// New creates an engine.
func New(cfg Config, logger *zap.Logger) *Engine {
	return &Engine{
		logger:    logger,
		transport: cfg.Transport,
		consumer:  cfg.Consumer,
		registry:  registry.New(logger),
		books: book.NewAggregator(book.Config{
			StoreTicks: cfg.StoreTicks,
			Flusher:    cfg.Flusher,
		}, logger),
		ledger: ledger.New(logger, cfg.HistoryDB),
	}
}

// Context is the handle consumer callbacks use to reach engine state and
// issue requests. It is only valid for the duration of the callback.
type Context struct {
	e *Engine
}

// RequestMarketData subscribes to a symbol from within a callback.
func (c Context) RequestMarketData(symbol string) error {
	return c.e.requestMarketData(symbol)
}

// SubmitOrder submits an order from within a callback.
func (c Context) SubmitOrder(spec ledger.OrderSpec) error {
	return c.e.submitOrder(spec)
}

// Book returns a symbol's book.
func (c Context) Book(symbol string) (*book.Book, bool) {
	return c.e.books.Book(symbol)
}

// Position returns a symbol's net position.
func (c Context) Position(symbol string) int {
	return c.e.ledger.Position(symbol)
}

// ActiveOrders returns the number of outstanding orders.
func (c Context) ActiveOrders() int {
	return c.e.ledger.ActiveCount()
}

// Session qualifiers as they appear in the session settings.
const (
	QualifierQuote = "QUOTE"
	QualifierTrade = "TRADE"
)

// OnSessionCreated binds a freshly created session by its qualifier. Sessions
// with an unrecognized qualifier are reported and left unbound.
func (e *Engine) OnSessionCreated(session SessionID, qualifier, account string) {
	switch strings.ToUpper(qualifier) {
	case QualifierQuote:
		e.BindQuoteSession(session)
	case QualifierTrade:
		e.BindTradeSession(session, account)
	default:
		e.logger.Error("session with unknown qualifier ignored",
			zap.String("session", string(session)),
			zap.String("qualifier", qualifier),
		)
	}
}

// BindQuoteSession records the quote-session handle (SessionQualifier=Quote).
func (e *Engine) BindQuoteSession(session SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quoteSession = session
	e.logger.Info("quote session bound", zap.String("session", string(session)))
}

// BindTradeSession records the trade-session handle and its account
// (SessionQualifier=Trade).
func (e *Engine) BindTradeSession(session SessionID, account string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tradeSession = session
	e.account = account
	e.logger.Info("trade session bound", zap.String("session", string(session)))
}

// OnLogon records a session coming up. Once every bound session has logged
// on, the consumer's OnStart fires exactly once.
func (e *Engine) OnLogon(session SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Info("logon", zap.String("session", string(session)))
	switch session {
	case e.quoteSession:
		e.quoteUp = true
	case e.tradeSession:
		e.tradeUp = true
	}
	e.maybeStart()
}

// OnLogout records a session going down.
func (e *Engine) OnLogout(session SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Info("logout", zap.String("session", string(session)))
	switch session {
	case e.quoteSession:
		e.quoteUp = false
	case e.tradeSession:
		e.tradeUp = false
	}
}

func (e *Engine) maybeStart() {
	if e.started {
		return
	}
	if e.quoteSession == "" || !e.quoteUp {
		return
	}
	if e.tradeSession != "" && !e.tradeUp {
		return
	}
	e.started = true
	if e.consumer != nil {
		e.consumer.OnStart(Context{e})
	}
}

// Ready reports whether every bound session is logged on.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.quoteSession == "" || !e.quoteUp {
		return false
	}
	if e.tradeSession != "" && !e.tradeUp {
		return false
	}
	return true
}

// Stats is a point-in-time snapshot of engine state for observability.
type Stats struct {
	Symbols      int
	ActiveOrders int
	Reports      int
}

// Snapshot returns current engine stats.
func (e *Engine) Snapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Symbols:      len(e.registry.Symbols()),
		ActiveOrders: e.ledger.ActiveCount(),
		Reports:      len(e.ledger.History()),
	}
}

// RequestMarketData registers the symbol and sends a subscription request on
// the quote session.
func (e *Engine) RequestMarketData(symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requestMarketData(symbol)
}

// SubmitOrder validates, records and transmits a new order.
func (e *Engine) SubmitOrder(spec ledger.OrderSpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitOrder(spec)
}

// Position returns a symbol's net position.
func (e *Engine) Position(symbol string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Position(symbol)
}

// ExecutionHistory returns a copy of the accumulated execution reports.
func (e *Engine) ExecutionHistory() []ledger.ExecutionReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ledger.ExecutionReport(nil), e.ledger.History()...)
}
