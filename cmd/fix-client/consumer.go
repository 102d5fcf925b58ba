package main

import (
	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/book"
	"github.com/quantbridge/fix-client-core/internal/engine"
	"github.com/quantbridge/fix-client-core/internal/ledger"
)

// demoConsumer subscribes to the configured symbols, logs the quote stream,
// and sends one market order once the first symbol's book is warm.
type demoConsumer struct {
	logger  *zap.Logger
	symbols []string

	ticks   map[string]int
	ordered bool
}

func newDemoConsumer(symbols []string, logger *zap.Logger) *demoConsumer {
	return &demoConsumer{
		logger:  logger,
		symbols: symbols,
		ticks:   make(map[string]int),
	}
}

func (d *demoConsumer) OnStart(ctx engine.Context) {
	for _, symbol := range d.symbols {
		if err := ctx.RequestMarketData(symbol); err != nil {
			d.logger.Error("subscribe failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

func (d *demoConsumer) OnTick(ctx engine.Context, symbol string, b *book.Book) {
	d.ticks[symbol]++
	n := d.ticks[symbol]

	if n%20 == 0 {
		d.logger.Info("top of book",
			zap.String("symbol", symbol),
			zap.Float64("bid", b.BidTOB),
			zap.Float64("ask", b.AskTOB),
			zap.Int("ticks", n),
		)
	}

	if !d.ordered && len(d.symbols) > 0 && symbol == d.symbols[0] && n >= 10 {
		d.ordered = true
		err := ctx.SubmitOrder(ledger.OrderSpec{
			Kind:     ledger.BuyMarket,
			Symbol:   symbol,
			Quantity: 10,
		})
		if err != nil {
			d.logger.Error("demo order failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

func (d *demoConsumer) OnExecutionReport(ctx engine.Context, report ledger.ExecutionReport) {
	d.logger.Info("execution report",
		zap.Int("cl_ord_id", report.ClOrdID),
		zap.String("symbol", report.Symbol),
		zap.String("status", string(report.Status)),
		zap.Int("cum_qty", report.CumQty),
		zap.Int("leaves_qty", report.LeavesQty),
		zap.Int("position", ctx.Position(report.Symbol)),
	)
}
