package spam

import (
	"sync"
	"time"

	"warden/internal/config"
	"warden/internal/utils"
)

type Signal string

const (
	SignalMessages    Signal = "messages"
	SignalMentions    Signal = "mentions"
	SignalLinks       Signal = "links"
	SignalEmojis      Signal = "emojis"
	SignalAttachments Signal = "attachments"
)

// Signals carries the per-message counts; Messages is always 1 for an
// inbound message.
type Signals struct {
	Messages    int
	Mentions    int
	Links       int
	Emojis      int
	Attachments int
}

type SignalCount struct {
	Signal Signal
	Count  int
	Limit  int
}

type Verdict struct {
	// Legacy marks a trip of the per-minute message bucket rather than the
	// windowed multi-signal check.
	Legacy   bool
	Exceeded []SignalCount
}

const legacyWindow = time.Minute

// Detector keeps per-member sliding windows. State is ephemeral and owned by
// the single detector instance bound to one engine; losing it on restart only
// costs throttling history.
type Detector struct {
	mu      sync.Mutex
	cfg     config.SpamLimits
	buckets map[string]*bucket
}

type bucket struct {
	windows map[Signal]*utils.SlidingWindow
	legacy  *utils.SlidingWindow
}

func New(cfg config.SpamLimits) *Detector {
	return &Detector{cfg: cfg, buckets: make(map[string]*bucket)}
}

// SetConfig swaps the limits and drops accumulated windows, since their
// durations may have changed.
func (d *Detector) SetConfig(cfg config.SpamLimits) {
	d.mu.Lock()
	d.cfg = cfg
	d.buckets = make(map[string]*bucket)
	d.mu.Unlock()
}

// Observe records one message worth of signals and reports a verdict when any
// limit is exceeded. The legacy per-minute bucket is evaluated first and
// short-circuits; tripped windows reset so the very next message does not
// re-trigger.
func (d *Detector) Observe(authorID string, signals Signals, now time.Time) *Verdict {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cfg.Enabled {
		return nil
	}
	b := d.bucketLocked(authorID)

	if d.cfg.MessagesPerMinute > 0 {
		count := b.legacy.Add(now)
		if count > d.cfg.MessagesPerMinute {
			b.legacy.Reset()
			return &Verdict{
				Legacy:   true,
				Exceeded: []SignalCount{{Signal: SignalMessages, Count: count, Limit: d.cfg.MessagesPerMinute}},
			}
		}
	}

	exceeded := make([]SignalCount, 0, 2)
	for _, check := range []struct {
		signal Signal
		n      int
		limit  int
	}{
		{SignalMessages, signals.Messages, d.cfg.Messages},
		{SignalMentions, signals.Mentions, d.cfg.Mentions},
		{SignalLinks, signals.Links, d.cfg.Links},
		{SignalEmojis, signals.Emojis, d.cfg.Emojis},
		{SignalAttachments, signals.Attachments, d.cfg.Attachments},
	} {
		if check.limit <= 0 || check.n <= 0 {
			continue
		}
		window := b.windows[check.signal]
		count := window.AddN(now, check.n)
		if count > check.limit {
			exceeded = append(exceeded, SignalCount{Signal: check.signal, Count: count, Limit: check.limit})
			window.Reset()
		}
	}
	if len(exceeded) == 0 {
		return nil
	}
	return &Verdict{Exceeded: exceeded}
}

func (d *Detector) bucketLocked(authorID string) *bucket {
	b := d.buckets[authorID]
	if b == nil {
		window := time.Duration(d.cfg.Window()) * time.Millisecond
		b = &bucket{
			windows: map[Signal]*utils.SlidingWindow{
				SignalMessages:    utils.NewSlidingWindow(window),
				SignalMentions:    utils.NewSlidingWindow(window),
				SignalLinks:       utils.NewSlidingWindow(window),
				SignalEmojis:      utils.NewSlidingWindow(window),
				SignalAttachments: utils.NewSlidingWindow(window),
			},
			legacy: utils.NewSlidingWindow(legacyWindow),
		}
		d.buckets[authorID] = b
	}
	return b
}
