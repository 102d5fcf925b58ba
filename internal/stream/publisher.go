package stream

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/book"
	"github.com/quantbridge/fix-client-core/internal/engine"
	"github.com/quantbridge/fix-client-core/internal/ledger"
)

// Publisher forwards top-of-book updates and execution reports to Kafka.
// It runs inside the engine's callback path, so publishing must never block.
type Publisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewPublisher builds a publisher on top of an existing producer.
func NewPublisher(producer *Producer, logger *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   logger,
	}
}

// OnStart implements engine.Consumer.
func (p *Publisher) OnStart(_ engine.Context) {}

// OnTick implements engine.Consumer. Only the current top of book is
// published, keyed by symbol so per-symbol ordering is preserved.
func (p *Publisher) OnTick(_ engine.Context, symbol string, b *book.Book) {
	event := TickEvent{
		EventID:   NewEventID(),
		Symbol:    symbol,
		Bid:       b.BidTOB,
		Ask:       b.AskTOB,
		Timestamp: time.Now().UTC(),
	}
	if lvl, ok := b.Level(b.LowestDepth()); ok {
		event.BidSize = lvl.BidSize
		event.AskSize = lvl.AskSize
	}

	p.publish(TopicTicks, symbol, event)
}

// OnExecutionReport implements engine.Consumer.
func (p *Publisher) OnExecutionReport(_ engine.Context, report ledger.ExecutionReport) {
	event := ExecutionEvent{
		EventID:    NewEventID(),
		ClOrdID:    report.ClOrdID,
		Symbol:     report.Symbol,
		Side:       string(report.Side),
		Status:     string(report.Status),
		Price:      report.Price,
		CumQty:     report.CumQty,
		LeavesQty:  report.LeavesQty,
		Timestamp:  report.TransactTime,
		ReceivedAt: time.Now().UTC(),
	}

	p.publish(TopicOrders, report.Symbol, event)
}

func (p *Publisher) publish(topic, key string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event", zap.String("topic", topic), zap.Error(err))
		return
	}
	p.producer.Publish(topic, key, payload)
}
