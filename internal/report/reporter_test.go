package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"homewatch/internal/sensor"
)

type countingSink struct {
	calls    int
	failTill int
}

func (s *countingSink) Send(ctx context.Context, batch Batch) error {
	s.calls++
	if s.calls <= s.failTill {
		return errors.New("connection refused")
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func batchWithSeq(seq uint64) Batch {
	return Batch{
		Seq:       seq,
		Readings:  []sensor.Reading{{Channel: "gas", Value: 400, Unit: "ppm", TS: time.Now().UTC()}},
		CreatedAt: time.Now().UTC(),
	}
}

func TestReportRetriesExactlyN(t *testing.T) {
	sink := &countingSink{failTill: 100}
	r := NewReporter(NewQueue(4), sink, 4, time.Millisecond, time.Second, testLogger())
	result := r.Report(context.Background(), batchWithSeq(1))
	if sink.calls != 4 {
		t.Fatalf("expected exactly 4 attempts, got %d", sink.calls)
	}
	if result.Sent || !result.Dropped || result.Attempts != 4 {
		t.Fatalf("unexpected result %+v", result)
	}
	if stats := r.Stats(); stats.DroppedAfterRetry != 1 {
		t.Fatalf("expected dropped batch in stats, got %+v", stats)
	}
}

func TestReportSucceedsAfterTransientFailure(t *testing.T) {
	sink := &countingSink{failTill: 2}
	r := NewReporter(NewQueue(4), sink, 5, time.Millisecond, time.Second, testLogger())
	result := r.Report(context.Background(), batchWithSeq(1))
	if !result.Sent || result.Attempts != 3 {
		t.Fatalf("expected success on third attempt, got %+v", result)
	}
}

func TestQueueDropOldest(t *testing.T) {
	q := NewQueue(2)
	q.Push(batchWithSeq(1))
	q.Push(batchWithSeq(2))
	if evicted := q.Push(batchWithSeq(3)); !evicted {
		t.Fatalf("expected eviction on overflow")
	}
	first, ok := q.Pop(context.Background())
	if !ok || first.Seq != 2 {
		t.Fatalf("expected oldest surviving batch seq 2, got %d", first.Seq)
	}
	second, _ := q.Pop(context.Background())
	if second.Seq != 3 {
		t.Fatalf("newest batch must survive, got %d", second.Seq)
	}
	if q.DroppedOnOverflow() != 1 {
		t.Fatalf("expected one overflow drop")
	}
}

func TestQueuePopUnblocksOnCancel(t *testing.T) {
	q := NewQueue(2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(ctx)
		done <- ok
	}()
	cancel()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected pop to report cancellation")
		}
	case <-time.After(time.Second):
		t.Fatalf("pop did not unblock")
	}
}

func TestEnqueueSkipsEmptyBatch(t *testing.T) {
	q := NewQueue(2)
	r := NewReporter(q, &countingSink{}, 3, time.Millisecond, time.Second, testLogger())
	r.Enqueue(Batch{CreatedAt: time.Now()})
	if q.Len() != 0 {
		t.Fatalf("empty batch must not be queued")
	}
}

func TestRunDrainsQueue(t *testing.T) {
	sink := &countingSink{}
	q := NewQueue(4)
	r := NewReporter(q, sink, 3, time.Millisecond, time.Second, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	r.Enqueue(batchWithSeq(1))
	r.Enqueue(batchWithSeq(2))
	deadline := time.After(2 * time.Second)
	for r.Stats().Sent < 2 {
		select {
		case <-deadline:
			t.Fatalf("reporter did not drain queue, stats %+v", r.Stats())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
}
