// Package observability exposes the process health endpoints.
package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ReadinessFunc reports whether the service is ready to accept traffic.
type ReadinessFunc func() bool

// StatusFunc returns a snapshot of service counters for /statusz.
type StatusFunc func() map[string]any

// HealthServer serves liveness, readiness and status over HTTP.
type HealthServer struct {
	logger *zap.Logger
	server *http.Server
	ready  ReadinessFunc
	status StatusFunc
}

// NewHealthServer builds a health server listening on addr. The ready and
// status functions may be nil, in which case the service is always ready and
// /statusz returns an empty object.
func NewHealthServer(addr string, ready ReadinessFunc, status StatusFunc, logger *zap.Logger) *HealthServer {
	hs := &HealthServer{
		logger: logger,
		ready:  ready,
		status: status,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", hs.handleHealthz)
	mux.HandleFunc("/readyz", hs.handleReadyz)
	mux.HandleFunc("/statusz", hs.handleStatusz)

	hs.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return hs
}

// Start begins serving in a background goroutine.
func (hs *HealthServer) Start() {
	go func() {
		hs.logger.Info("health server listening", zap.String("addr", hs.server.Addr))
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Error("health server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully.
func (hs *HealthServer) Shutdown(ctx context.Context) error {
	return hs.server.Shutdown(ctx)
}

func (hs *HealthServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (hs *HealthServer) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if hs.ready != nil && !hs.ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (hs *HealthServer) handleStatusz(w http.ResponseWriter, _ *http.Request) {
	snapshot := map[string]any{}
	if hs.status != nil {
		snapshot = hs.status()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		hs.logger.Warn("encode status snapshot", zap.Error(err))
	}
}
