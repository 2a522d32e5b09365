package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"lineage/internal/engine/metrics"
	"lineage/internal/person/models"
)

// Analyzer is the unit of work the worker pool executes. The engine Service
// satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, record *models.Record) error
}

// Worker runs analyses on a bounded queue so record writes never wait for
// scanning. Enqueue does not block: when the queue is full the task is
// dropped with a warning, because a fresher write will re-trigger analysis
// for the same owner anyway.
type Worker struct {
	analyzer Analyzer
	queue    chan *models.Record
	logger   *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration

	workers sync.WaitGroup
	tasks   sync.WaitGroup
	closed  atomic.Bool
}

// WorkerOption configures the Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the structured logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithWorkerMetrics attaches Prometheus collectors.
func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithAnalysisTimeout bounds each analysis run. Zero disables the bound.
func WithAnalysisTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.timeout = d
	}
}

// NewWorker starts a pool of goroutines consuming the analysis queue.
func NewWorker(analyzer Analyzer, queueSize, workerCount int, opts ...WorkerOption) *Worker {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	w := &Worker{
		analyzer: analyzer,
		queue:    make(chan *models.Record, queueSize),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	for range workerCount {
		w.workers.Add(1)
		go w.run()
	}
	return w
}

func (w *Worker) run() {
	defer w.workers.Done()
	for record := range w.queue {
		if w.metrics != nil {
			w.metrics.QueueDepth.Dec()
		}
		w.execute(record)
		w.tasks.Done()
	}
}

func (w *Worker) execute(record *models.Record) {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	// Analyze logs and audits its own failures; the error here only marks
	// the task as finished unsuccessfully.
	_ = w.analyzer.Analyze(ctx, record)
}

// Enqueue schedules an analysis without blocking. It reports whether the
// task was accepted.
func (w *Worker) Enqueue(record *models.Record) bool {
	if record == nil || w.closed.Load() {
		return false
	}
	w.tasks.Add(1)
	select {
	case w.queue <- record:
		if w.metrics != nil {
			w.metrics.QueueDepth.Inc()
		}
		return true
	default:
		w.tasks.Done()
		w.logger.Warn("analysis queue full, task dropped",
			"owner_id", record.OwnerID, "person_id", record.ID)
		if w.metrics != nil {
			w.metrics.TasksDropped.Inc()
		}
		return false
	}
}

// Drain blocks until every accepted task has finished. Tests use it to make
// background analysis deterministic.
func (w *Worker) Drain() {
	w.tasks.Wait()
}

// Close stops accepting tasks, drains the queue, and waits for the pool to
// exit.
func (w *Worker) Close() {
	if w.closed.Swap(true) {
		return
	}
	w.tasks.Wait()
	close(w.queue)
	w.workers.Wait()
}
