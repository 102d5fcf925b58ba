package engine

import (
	"github.com/quantbridge/fix-client-core/internal/book"
	"github.com/quantbridge/fix-client-core/internal/ledger"
)

// MultiConsumer fans each callback out to several consumers in order. The
// engine's serialization still holds: every consumer sees every callback,
// one at a time.
type MultiConsumer []Consumer

// OnStart implements Consumer.
func (m MultiConsumer) OnStart(ctx Context) {
	for _, c := range m {
		c.OnStart(ctx)
	}
}

// OnTick implements Consumer.
func (m MultiConsumer) OnTick(ctx Context, symbol string, b *book.Book) {
	for _, c := range m {
		c.OnTick(ctx, symbol, b)
	}
}

// OnExecutionReport implements Consumer.
func (m MultiConsumer) OnExecutionReport(ctx Context, report ledger.ExecutionReport) {
	for _, c := range m {
		c.OnExecutionReport(ctx, report)
	}
}
