package book

import (
	"sync"

	"go.uber.org/zap"
)

// FlushJob carries an immutable snapshot of one symbol's logs to persist.
type FlushJob struct {
	Symbol   string
	Ticks    []Tick
	TOBTicks []TOBTick
}

// Flusher persists history snapshots on a single background goroutine, so
// file I/O never runs under the engine lock. A single consumer keeps flushes
// for the same symbol in submission order.
type Flusher struct {
	dir    string
	logger *zap.Logger
	ch     chan FlushJob
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewFlusher creates a flusher writing under dir and starts its worker.
func NewFlusher(dir string, queueSize int, logger *zap.Logger) *Flusher {
	if queueSize <= 0 {
		queueSize = 64
	}
	f := &Flusher{
		dir:    dir,
		logger: logger,
		ch:     make(chan FlushJob, queueSize),
	}
	f.wg.Add(1)
	go f.run()
	return f
}

// Enqueue submits a flush without blocking. When the queue is full the job
// is dropped: each flush rewrites the complete log, so the next minute's
// flush covers everything a dropped one would have written.
func (f *Flusher) Enqueue(job FlushJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.ch <- job:
	default:
		f.logger.Warn("flush queue full, dropping flush", zap.String("symbol", job.Symbol))
	}
}

// Close stops accepting jobs and waits until every queued flush has been
// written.
func (f *Flusher) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.ch)
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *Flusher) run() {
	defer f.wg.Done()
	for job := range f.ch {
		if err := WriteTickHistory(f.dir, job.Symbol, job.Ticks); err != nil {
			f.logger.Error("tick history flush failed",
				zap.String("symbol", job.Symbol),
				zap.Error(err),
			)
		}
		if err := WriteTOBHistory(f.dir, job.Symbol, job.TOBTicks); err != nil {
			f.logger.Error("top-of-book history flush failed",
				zap.String("symbol", job.Symbol),
				zap.Error(err),
			)
		}
	}
}
