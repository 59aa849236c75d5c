package audit

import (
	"context"
	"log/slog"
	"time"

	"phishsim/internal/models"
	"phishsim/internal/platform/metrics"
	"phishsim/pkg/platform/circuit"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = time.Second
	shutdownFlushTimeout = 5 * time.Second
)

// Worker drains buffered audit entries to its sinks. Its Enqueue method is
// registered as a store commit hook; delivery happens on the Run goroutine.
type Worker struct {
	buf      *RingBuffer
	sinks    []Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	batch    int
	interval time.Duration
	wake     chan struct{}
	now      func() time.Time
}

type WorkerOption func(*Worker)

func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

func WithFlushInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) WorkerOption {
	return func(w *Worker) {
		w.breaker = b
	}
}

func NewWorker(buf *RingBuffer, sinks []Sink, opts ...WorkerOption) *Worker {
	w := &Worker{
		buf:      buf,
		sinks:    sinks,
		breaker:  circuit.New("audit-stream", circuit.WithCooldown(30*time.Second)),
		logger:   slog.Default(),
		batch:    defaultBatchSize,
		interval: defaultFlushInterval,
		wake:     make(chan struct{}, 1),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue buffers entries and nudges Run. It never blocks.
func (w *Worker) Enqueue(_ context.Context, entries []*models.AuditLog) {
	w.buf.Enqueue(entries...)
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run delivers buffered entries until ctx is done, then makes one final
// bounded attempt to flush what is left.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			w.Flush(flushCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			w.Flush(ctx)
		case <-w.wake:
			w.Flush(ctx)
		}
	}
}

// Flush delivers everything currently buffered, batch by batch. It stops
// early while the breaker is open; undelivered batches are dropped.
func (w *Worker) Flush(ctx context.Context) {
	for w.buf.Len() > 0 {
		if ctx.Err() != nil || !w.breaker.Allow(w.now()) {
			return
		}
		batch := w.buf.DequeueBatch(w.batch)
		if err := w.deliver(ctx, batch); err != nil {
			change := w.breaker.RecordFailure(w.now())
			w.metrics.IncrementAuditStreamFailure()
			w.logger.WarnContext(ctx, "audit stream delivery failed",
				"error", err,
				"dropped", len(batch),
				"breaker_opened", change.Opened,
			)
			continue
		}
		if change := w.breaker.RecordSuccess(); change.Closed {
			w.logger.InfoContext(ctx, "audit stream recovered")
		}
	}
}

func (w *Worker) deliver(ctx context.Context, batch []*models.AuditLog) error {
	for _, s := range w.sinks {
		if err := s.Publish(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}
