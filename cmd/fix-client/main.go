package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quantbridge/fix-client-core/internal/book"
	"github.com/quantbridge/fix-client-core/internal/config"
	"github.com/quantbridge/fix-client-core/internal/engine"
	"github.com/quantbridge/fix-client-core/internal/ledger"
	"github.com/quantbridge/fix-client-core/internal/logging"
	"github.com/quantbridge/fix-client-core/internal/observability"
	"github.com/quantbridge/fix-client-core/internal/sim"
	"github.com/quantbridge/fix-client-core/internal/stream"
)

const (
	quoteSession engine.SessionID = "FIXSIM-QUOTE"
	tradeSession engine.SessionID = "FIXSIM-TRADE"
)

func main() {
	cfg := config.LoadConfig("fix-client")

	logger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var flusher *book.Flusher
	if cfg.SaveHistory {
		flusher = book.NewFlusher(cfg.HistoryDir, 0, logger)
	}

	var store *ledger.Store
	if cfg.ExecutionDBPath != "" {
		store, err = ledger.OpenStore(cfg.ExecutionDBPath)
		if err != nil {
			logger.Fatal("open execution store", zap.Error(err))
		}
	}

	consumers := engine.MultiConsumer{newDemoConsumer(cfg.Symbols, logger)}

	var producer *stream.Producer
	if cfg.KafkaEnabled {
		producer, err = stream.NewProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Fatal("create kafka producer", zap.Error(err))
		}
		consumers = append(consumers, stream.NewPublisher(producer, logger))
	}

	venue := sim.NewVenue(sim.LoadConfig(), logger)

	eng := engine.New(engine.Config{
		Transport:  venue,
		Consumer:   consumers,
		StoreTicks: cfg.StoreTicks,
		Flusher:    flusher,
		HistoryDB:  store,
	}, logger)
	venue.Attach(eng)

	eng.OnSessionCreated(quoteSession, engine.QualifierQuote, "")
	eng.OnSessionCreated(tradeSession, engine.QualifierTrade, cfg.Account)

	health := observability.NewHealthServer(cfg.HTTPAddr(), eng.Ready, func() map[string]any {
		stats := eng.Snapshot()
		snapshot := map[string]any{
			"symbols":       stats.Symbols,
			"active_orders": stats.ActiveOrders,
			"reports":       stats.Reports,
		}
		if producer != nil {
			published, failed := producer.Stats()
			snapshot["published"] = published
			snapshot["publish_failed"] = failed
		}
		return snapshot
	}, logger)
	health.Start()

	// The simulated venue has no session handshake, so both sessions come up
	// as soon as the process starts.
	eng.OnLogon(quoteSession)
	eng.OnLogon(tradeSession)

	go venue.Run(ctx)

	logger.Info("client running",
		zap.Strings("symbols", cfg.Symbols),
		zap.Bool("kafka", cfg.KafkaEnabled),
	)
	<-ctx.Done()
	logger.Info("shutting down")

	eng.OnLogout(quoteSession)
	eng.OnLogout(tradeSession)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown", zap.Error(err))
	}

	if flusher != nil {
		flusher.Close()
	}
	if producer != nil {
		producer.Close()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("close execution store", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}
