package fraud

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/certhq/certify/pkg/logger"
)

// analysisJob is one queued analysis run. The correlation ID is carried so
// asynchronous log lines can be tied back to the request that caused them.
type analysisJob struct {
	certificateID string
	sourceAddress string
	correlationID string
}

// Worker runs analysis jobs on a bounded queue. Enqueue never blocks the
// verification path: when the queue is full the job is dropped and counted.
type Worker struct {
	analyzer *Analyzer
	jobs     chan analysisJob
	wg       sync.WaitGroup
	timeout  time.Duration
}

// NewWorker creates a worker pool with the given concurrency and queue size
func NewWorker(analyzer *Analyzer, workerCount, queueSize int) *Worker {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	w := &Worker{
		analyzer: analyzer,
		jobs:     make(chan analysisJob, queueSize),
		timeout:  30 * time.Second,
	}

	for i := 0; i < workerCount; i++ {
		w.wg.Add(1)
		go w.run()
	}

	return w
}

// Enqueue schedules an analysis run. It returns false when the queue is full
// and the job was dropped.
func (w *Worker) Enqueue(ctx context.Context, certificateID, sourceAddress string) bool {
	job := analysisJob{
		certificateID: certificateID,
		sourceAddress: sourceAddress,
		correlationID: logger.CorrelationIDFromContext(ctx),
	}

	select {
	case w.jobs <- job:
		return true
	default:
		queueDropped.Inc()
		logger.WithContext(ctx).Warn("analysis queue full, job dropped",
			zap.String("certificate_id", certificateID))
		return false
	}
}

// Stop closes the queue and waits for in-flight jobs to finish
func (w *Worker) Stop() {
	close(w.jobs)
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()

	for job := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if job.correlationID != "" {
			ctx = logger.WithCorrelationID(ctx, job.correlationID)
		}

		if _, err := w.analyzer.Analyze(ctx, job.certificateID, job.sourceAddress); err != nil {
			logger.WithContext(ctx).Error("analysis run failed",
				zap.String("certificate_id", job.certificateID), zap.Error(err))
		}
		cancel()
	}
}
