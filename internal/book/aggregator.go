package book

import (
	"time"

	"go.uber.org/zap"
)

// Config controls tick retention and history persistence.
type Config struct {
	// StoreTicks keeps per-update tick and top-of-book logs in memory.
	StoreTicks bool
	// Flusher persists the logs once per event-time minute. Nil disables
	// persistence entirely.
	Flusher *Flusher
}

// Aggregator folds per-depth quote fragments into per-symbol books.
// It is not safe for concurrent use by itself; the dispatch engine runs every
// call under its serialization mutex.
type Aggregator struct {
	cfg    Config
	logger *zap.Logger
	books  map[string]*Book
}

// NewAggregator creates an empty aggregator.
func NewAggregator(cfg Config, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		logger: logger,
		books:  make(map[string]*Book),
	}
}

// Ensure creates the book for a symbol if it does not exist yet. Repeated
// calls return the existing book untouched.
func (a *Aggregator) Ensure(symbol string) *Book {
	b, ok := a.books[symbol]
	if !ok {
		a.logger.Info("creating book", zap.String("symbol", symbol))
		b = newBook(symbol)
		a.books[symbol] = b
	}
	return b
}

// Book returns the book for a symbol.
func (a *Aggregator) Book(symbol string) (*Book, bool) {
	b, ok := a.books[symbol]
	return b, ok
}

// ApplyLevel merges one quote fragment into the symbol's book and reports
// whether the update was accepted. Rejected updates (negative depth, unknown
// symbol, or a fragment with no positive field) change nothing.
func (a *Aggregator) ApplyLevel(eventTime time.Time, symbol string, depth int, frag Fragment) bool {
	b, ok := a.books[symbol]
	if !ok {
		a.logger.Warn("quote for unregistered symbol dropped", zap.String("symbol", symbol))
		return false
	}
	if depth < 0 || frag.empty() {
		return false
	}

	slot, tobChanged := b.apply(depth, frag)

	if a.cfg.StoreTicks {
		lvl := b.Levels[slot]
		b.Ticks = append(b.Ticks, Tick{
			Time:    eventTime,
			Depth:   depth,
			Bid:     lvl.Bid,
			Ask:     lvl.Ask,
			BidSize: lvl.BidSize,
			AskSize: lvl.AskSize,
		})
		if tobChanged {
			b.TOBTicks = append(b.TOBTicks, TOBTick{
				Time: eventTime,
				Bid:  b.BidTOB,
				Ask:  b.AskTOB,
			})
		}
	}

	if a.cfg.Flusher != nil {
		if minute := eventTime.Minute(); minute != b.lastFlushMinute {
			b.lastFlushMinute = minute
			a.cfg.Flusher.Enqueue(FlushJob{
				Symbol:   symbol,
				Ticks:    append([]Tick(nil), b.Ticks...),
				TOBTicks: append([]TOBTick(nil), b.TOBTicks...),
			})
		}
	}

	return true
}
