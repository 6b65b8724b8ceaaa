package spam

import (
	"testing"
	"time"

	"warden/internal/config"
)

func limits() config.SpamLimits {
	return config.SpamLimits{
		Enabled:           true,
		WindowMs:          10000,
		Messages:          5,
		Mentions:          4,
		Links:             3,
		MessagesPerMinute: 10,
	}
}

func TestLegacyBucketTripAndReset(t *testing.T) {
	cfg := limits()
	cfg.Messages = 0 // isolate the legacy bucket
	detector := New(cfg)
	start := time.Unix(0, 0)

	for i := 0; i < 10; i++ {
		if v := detector.Observe("u1", Signals{Messages: 1}, start.Add(time.Duration(i)*time.Second)); v != nil {
			t.Fatalf("message %d tripped early: %+v", i, v)
		}
	}
	v := detector.Observe("u1", Signals{Messages: 1}, start.Add(11*time.Second))
	if v == nil || !v.Legacy {
		t.Fatalf("expected legacy trip on the 11th message, got %+v", v)
	}
	if v.Exceeded[0].Count != 11 {
		t.Fatalf("expected observed count 11, got %d", v.Exceeded[0].Count)
	}

	// The bucket reset on trip, so the next message must not re-trip.
	if v := detector.Observe("u1", Signals{Messages: 1}, start.Add(12*time.Second)); v != nil {
		t.Fatalf("expected no re-trip after reset, got %+v", v)
	}
}

func TestWindowedSignalsCountSameMessageMultiplicity(t *testing.T) {
	cfg := limits()
	cfg.MessagesPerMinute = 0
	detector := New(cfg)
	start := time.Unix(0, 0)

	// One message carrying 4 links exceeds the limit of 3 immediately.
	v := detector.Observe("u1", Signals{Messages: 1, Links: 4}, start)
	if v == nil || v.Legacy {
		t.Fatalf("expected windowed verdict, got %+v", v)
	}
	if len(v.Exceeded) != 1 || v.Exceeded[0].Signal != SignalLinks || v.Exceeded[0].Count != 4 {
		t.Fatalf("unexpected exceeded set: %+v", v.Exceeded)
	}
}

func TestWindowExpiryClearsCounts(t *testing.T) {
	cfg := limits()
	cfg.MessagesPerMinute = 0
	detector := New(cfg)
	start := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		if v := detector.Observe("u1", Signals{Messages: 1}, start.Add(time.Duration(i)*time.Second)); v != nil {
			t.Fatalf("tripped early: %+v", v)
		}
	}
	// Past the 10s window, the old entries are gone.
	if v := detector.Observe("u1", Signals{Messages: 1}, start.Add(20*time.Second)); v != nil {
		t.Fatalf("expected cleared window, got %+v", v)
	}
}

func TestVerdictNamesAllExceededSignals(t *testing.T) {
	cfg := limits()
	cfg.MessagesPerMinute = 0
	cfg.Messages = 1
	cfg.Mentions = 1
	detector := New(cfg)
	start := time.Unix(0, 0)

	detector.Observe("u1", Signals{Messages: 1, Mentions: 1}, start)
	v := detector.Observe("u1", Signals{Messages: 1, Mentions: 1}, start.Add(time.Second))
	if v == nil || len(v.Exceeded) != 2 {
		t.Fatalf("expected both signals reported, got %+v", v)
	}
}

func TestMembersAreIsolated(t *testing.T) {
	cfg := limits()
	cfg.MessagesPerMinute = 2
	cfg.Messages = 0
	detector := New(cfg)
	start := time.Unix(0, 0)

	detector.Observe("u1", Signals{Messages: 1}, start)
	detector.Observe("u1", Signals{Messages: 1}, start.Add(time.Second))
	if v := detector.Observe("u2", Signals{Messages: 1}, start.Add(2*time.Second)); v != nil {
		t.Fatalf("u2 must have its own bucket, got %+v", v)
	}
}

func TestDisabledDetectorIsSilent(t *testing.T) {
	cfg := limits()
	cfg.Enabled = false
	detector := New(cfg)
	if v := detector.Observe("u1", Signals{Messages: 1, Links: 100}, time.Unix(0, 0)); v != nil {
		t.Fatalf("disabled detector must not report, got %+v", v)
	}
}
