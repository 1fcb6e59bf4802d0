package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Channel binds a named sensor input to its source driver.
type Channel struct {
	Name   string
	Unit   string
	Source Source
}

// ChannelError marks a channel degraded for the cycle it failed in.
type ChannelError struct {
	Channel string
	Err     error
}

func (e ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %v", e.Channel, e.Err)
}

// Health is a point-in-time view of one channel's recent behavior.
type Health struct {
	Channel   string    `json:"channel"`
	Degraded  bool      `json:"degraded"`
	Failures  int       `json:"consecutiveFailures"`
	LastValue float64   `json:"lastValue"`
	LastOK    time.Time `json:"lastOk"`
}

// Reader polls every configured channel once per cycle. A failing or
// slow channel is degraded for that cycle only and never holds up the
// rest of the set.
type Reader struct {
	channels []Channel
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	health map[string]*Health
}

func NewReader(channels []Channel, timeout time.Duration, logger *slog.Logger) *Reader {
	health := make(map[string]*Health, len(channels))
	for _, ch := range channels {
		health[ch.Name] = &Health{Channel: ch.Name}
	}
	return &Reader{channels: channels, timeout: timeout, logger: logger, health: health}
}

type readResult struct {
	value float64
	err   error
}

// Poll reads all channels and returns the readings that succeeded
// plus one ChannelError per degraded channel.
func (r *Reader) Poll(ctx context.Context) ([]Reading, []ChannelError) {
	readings := make([]Reading, 0, len(r.channels))
	var degraded []ChannelError
	for _, ch := range r.channels {
		value, err := r.readChannel(ctx, ch)
		now := time.Now().UTC()
		if err != nil {
			degraded = append(degraded, ChannelError{Channel: ch.Name, Err: err})
			r.markFailure(ch.Name)
			r.logger.Warn("channel degraded", slog.String("channel", ch.Name), slog.String("error", err.Error()))
			continue
		}
		r.markSuccess(ch.Name, value, now)
		readings = append(readings, Reading{Channel: ch.Name, Value: value, Unit: ch.Unit, TS: now})
	}
	return readings, degraded
}

// readChannel enforces the per-channel timeout even against a source
// that ignores its context.
func (r *Reader) readChannel(ctx context.Context, ch Channel) (float64, error) {
	readCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	done := make(chan readResult, 1)
	go func() {
		value, err := ch.Source.Read(readCtx)
		done <- readResult{value: value, err: err}
	}()
	select {
	case res := <-done:
		return res.value, res.err
	case <-readCtx.Done():
		return 0, fmt.Errorf("read timed out after %s", r.timeout)
	}
}

func (r *Reader) markFailure(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.health[name]
	h.Degraded = true
	h.Failures++
}

func (r *Reader) markSuccess(name string, value float64, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.health[name]
	h.Degraded = false
	h.Failures = 0
	h.LastValue = value
	h.LastOK = now
}

// HealthSnapshot returns a copy of per-channel health, ordered by the
// configured channel order.
func (r *Reader) HealthSnapshot() []Health {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Health, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, *r.health[ch.Name])
	}
	return out
}
