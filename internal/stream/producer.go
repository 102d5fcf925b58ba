package stream

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Producer wraps a Kafka client for publishing events.
type Producer struct {
	client *kgo.Client
	logger *zap.Logger

	published atomic.Int64
	failed    atomic.Int64
}

// NewProducer creates a Kafka producer for the given brokers.
func NewProducer(brokers []string, logger *zap.Logger) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	p := &Producer{
		client: client,
		logger: logger,
	}
	go p.logStats()

	return p, nil
}

// Publish sends one record asynchronously. Delivery failures are counted and
// logged but never block the caller.
func (p *Producer) Publish(topic, key string, value []byte) {
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	p.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.failed.Add(1)
			p.logger.Warn("publish failed",
				zap.String("topic", topic),
				zap.String("key", key),
				zap.Error(err))
			return
		}
		p.published.Add(1)
	})
}

// Stats returns the cumulative publish counters.
func (p *Producer) Stats() (published, failed int64) {
	return p.published.Load(), p.failed.Load()
}

// Close flushes outstanding records and releases the client.
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("flush on close", zap.Error(err))
	}
	p.client.Close()
}

func (p *Producer) logStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		p.logger.Info("producer stats",
			zap.Int64("published", p.published.Load()),
			zap.Int64("failed", p.failed.Load()))
	}
}
