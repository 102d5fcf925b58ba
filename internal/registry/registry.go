// Package registry correlates outbound market-data subscriptions with the
// inbound quote-set messages that answer them. Each subscribed symbol gets an
// opaque request id carried in the subscription request and echoed back by
// the venue; ids are assigned once and never reclaimed.
package registry

import (
	"errors"

	"go.uber.org/zap"
)

// ErrUnknownRequestID reports a quote message referencing an id this client
// never assigned, which means a bug or a stale/foreign message. Callers drop
// the message and log; they must not crash.
var ErrUnknownRequestID = errors.New("unknown market data request id")

// RequestID correlates a subscription request with its quote updates.
type RequestID int

// Registry assigns and resolves request ids. It is not safe for concurrent
// use by itself; the dispatch engine serializes access.
type Registry struct {
	logger     *zap.Logger
	nextID     RequestID
	idToSymbol map[RequestID]string
	symbolToID map[string]RequestID
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		logger:     logger,
		idToSymbol: make(map[RequestID]string),
		symbolToID: make(map[string]RequestID),
	}
}

// Register returns the symbol's request id, allocating the next id on first
// registration. Re-registering is a no-op returning the existing id, so
// callers can register freely without risking duplicate state.
func (r *Registry) Register(symbol string) RequestID {
	if id, ok := r.symbolToID[symbol]; ok {
		return id
	}
	id := r.nextID
	r.nextID++
	r.idToSymbol[id] = symbol
	r.symbolToID[symbol] = id
	r.logger.Info("symbol registered",
		zap.String("symbol", symbol),
		zap.Int("request_id", int(id)),
	)
	return id
}

// Resolve maps a request id back to its symbol.
func (r *Registry) Resolve(id RequestID) (string, error) {
	symbol, ok := r.idToSymbol[id]
	if !ok {
		return "", ErrUnknownRequestID
	}
	return symbol, nil
}

// Symbols returns every registered symbol.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.symbolToID))
	for s := range r.symbolToID {
		out = append(out, s)
	}
	return out
}
