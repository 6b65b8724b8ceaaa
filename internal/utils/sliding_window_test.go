package utils

import (
	"testing"
	"time"
)

func TestSlidingWindowTrims(t *testing.T) {
	window := NewSlidingWindow(2 * time.Second)
	start := time.Unix(0, 0)

	if count := window.Add(start); count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
	if count := window.AddN(start.Add(time.Second), 3); count != 4 {
		t.Fatalf("expected 4, got %d", count)
	}
	if count := window.Count(start.Add(3 * time.Second)); count != 3 {
		t.Fatalf("expected 3 after trim, got %d", count)
	}

	window.Reset()
	if count := window.Count(start.Add(3 * time.Second)); count != 0 {
		t.Fatalf("expected empty window, got %d", count)
	}
}
