package report

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Reporter drains the queue and delivers each batch with bounded
// retry. A batch that exhausts its attempts is dropped with an error
// log; the process itself never stops over a sink failure.
type Reporter struct {
	queue       *Queue
	sink        Sink
	maxAttempts int
	backoffBase time.Duration
	sendTimeout time.Duration
	logger      *slog.Logger

	sent        atomic.Uint64
	droppedSend atomic.Uint64
}

func NewReporter(queue *Queue, sink Sink, maxAttempts int, backoffBase, sendTimeout time.Duration, logger *slog.Logger) *Reporter {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = 200 * time.Millisecond
	}
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Reporter{
		queue:       queue,
		sink:        sink,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Enqueue hands a batch to the dispatch goroutine without blocking.
func (r *Reporter) Enqueue(batch Batch) {
	if batch.Empty() {
		return
	}
	if evicted := r.queue.Push(batch); evicted {
		r.logger.Warn("report queue full, dropped oldest batch")
	}
}

// Run dispatches batches until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	for {
		batch, ok := r.queue.Pop(ctx)
		if !ok {
			return
		}
		r.Report(ctx, batch)
	}
}

// Report delivers one batch, retrying with exponential backoff up to
// the configured attempt count.
func (r *Reporter) Report(ctx context.Context, batch Batch) Result {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
		err := r.sink.Send(sendCtx, batch)
		cancel()
		if err == nil {
			r.sent.Add(1)
			return Result{Sent: true, Attempts: attempt}
		}
		lastErr = err
		if attempt < r.maxAttempts {
			if !sleep(ctx, r.backoffBase<<(attempt-1)) {
				break
			}
		}
	}
	r.droppedSend.Add(1)
	r.logger.Error("batch dropped after retries",
		slog.Uint64("seq", batch.Seq),
		slog.Int("attempts", r.maxAttempts),
		slog.String("error", lastErr.Error()))
	return Result{Sent: false, Attempts: r.maxAttempts, Dropped: true}
}

// Stats is exposed on the admin status endpoint.
type Stats struct {
	Sent              uint64 `json:"sent"`
	DroppedAfterRetry uint64 `json:"droppedAfterRetry"`
	DroppedOnOverflow uint64 `json:"droppedOnOverflow"`
	QueueDepth        int    `json:"queueDepth"`
}

func (r *Reporter) Stats() Stats {
	return Stats{
		Sent:              r.sent.Load(),
		DroppedAfterRetry: r.droppedSend.Load(),
		DroppedOnOverflow: r.queue.DroppedOnOverflow(),
		QueueDepth:        r.queue.Len(),
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
