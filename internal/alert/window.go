package alert

import (
	"sync"
	"time"
)

// window keeps the recent samples for one channel, used by the
// robust z-score and missing-data detectors.
type window struct {
	values   []float64
	max      int
	lastSeen time.Time
}

func (w *window) push(value float64, ts time.Time) {
	if len(w.values) >= w.max {
		copy(w.values, w.values[1:])
		w.values[len(w.values)-1] = value
	} else {
		w.values = append(w.values, value)
	}
	w.lastSeen = ts
}

// Windows tracks per-channel sample history across cycles.
type Windows struct {
	mu   sync.Mutex
	size int
	byCh map[string]*window
}

func NewWindows(size int) *Windows {
	if size <= 0 {
		size = 64
	}
	return &Windows{size: size, byCh: map[string]*window{}}
}

func (w *Windows) Push(channel string, value float64, ts time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := w.byCh[channel]
	if !ok {
		win = &window{values: make([]float64, 0, w.size), max: w.size}
		w.byCh[channel] = win
	}
	win.push(value, ts)
}

// Samples returns a copy of the stored samples for a channel.
func (w *Windows) Samples(channel string) []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := w.byCh[channel]
	if !ok {
		return nil
	}
	out := make([]float64, len(win.values))
	copy(out, win.values)
	return out
}

// LastSeen returns the timestamp of the newest sample, or zero time if
// the channel has never produced one.
func (w *Windows) LastSeen(channel string) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if win, ok := w.byCh[channel]; ok {
		return win.lastSeen
	}
	return time.Time{}
}
