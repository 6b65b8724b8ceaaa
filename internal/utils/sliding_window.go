package utils

import (
	"sync"
	"time"
)

type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	hits   []time.Time
}

func NewSlidingWindow(window time.Duration) *SlidingWindow {
	return &SlidingWindow{window: window}
}

func (w *SlidingWindow) Add(now time.Time) int {
	return w.AddN(now, 1)
}

// AddN records n hits at the same instant and returns the count of hits
// still inside the window.
func (w *SlidingWindow) AddN(now time.Time, n int) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trim(now)
	for i := 0; i < n; i++ {
		w.hits = append(w.hits, now)
	}
	return len(w.hits)
}

func (w *SlidingWindow) Count(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trim(now)
	return len(w.hits)
}

func (w *SlidingWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hits = w.hits[:0]
}

func (w *SlidingWindow) trim(now time.Time) {
	cutoff := now.Add(-w.window)
	idx := 0
	for _, hit := range w.hits {
		if hit.After(cutoff) {
			break
		}
		idx++
	}
	w.hits = w.hits[idx:]
}
