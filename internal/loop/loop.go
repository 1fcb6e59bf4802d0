package loop

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"homewatch/internal/alert"
	"homewatch/internal/report"
	"homewatch/internal/sensor"
)

// Loop drives the poll -> evaluate -> report cycle on a fixed period.
// Only the reporter ever blocks on the network; the loop hands each
// batch to its queue and moves straight on to the next cycle.
type Loop struct {
	reader   *sensor.Reader
	eval     *alert.Evaluator
	reporter *report.Reporter
	interval time.Duration
	logger   *slog.Logger

	cycles atomic.Uint64
	seq    atomic.Uint64
}

func New(reader *sensor.Reader, eval *alert.Evaluator, reporter *report.Reporter, interval time.Duration, logger *slog.Logger) *Loop {
	return &Loop{
		reader:   reader,
		eval:     eval,
		reporter: reporter,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled. The first cycle fires immediately.
func (l *Loop) Run(ctx context.Context) {
	l.RunCycle(ctx)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.RunCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunCycle executes one poll -> evaluate -> report pass.
func (l *Loop) RunCycle(ctx context.Context) {
	now := time.Now().UTC()
	readings, degraded := l.reader.Poll(ctx)
	alerts := l.eval.Evaluate(readings, now)
	if len(degraded) > 0 {
		l.logger.Warn("cycle completed with degraded channels",
			slog.Int("degraded", len(degraded)),
			slog.Int("readings", len(readings)))
	}
	l.reporter.Enqueue(report.Batch{
		Seq:       l.seq.Add(1),
		Readings:  readings,
		Alerts:    alerts,
		CreatedAt: now,
	})
	l.cycles.Add(1)
}

func (l *Loop) Cycles() uint64 { return l.cycles.Load() }
