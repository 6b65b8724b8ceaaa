package cases

import (
	"sync"
	"time"
)

type EventKind string

const (
	EventCaseCreated  EventKind = "case:created"
	EventCaseMessage  EventKind = "case:message"
	EventCaseStatus   EventKind = "case:status"
	EventCaseDeleted  EventKind = "case:deleted"
	EventCasesUpdated EventKind = "cases:updated"
	EventStatsUpdated EventKind = "stats:updated"
)

type Event struct {
	Kind    EventKind
	GuildID string
	CaseID  string
	At      time.Time
}

// bus fans events out to subscribers at-most-once, best-effort. Each
// subscriber gets a buffered channel drained by its own goroutine, so a slow
// listener drops events instead of blocking mutations. There is no replay;
// new subscribers pull current state separately.
type bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

const subscriberBuffer = 64

func newBus() *bus {
	return &bus{subs: make(map[int]chan Event)}
}

func (b *bus) subscribe(fn func(Event)) func() {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		for event := range ch {
			fn(event)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *bus) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	// Sends stay under the lock so unsubscribe cannot close a channel
	// mid-send; they never block thanks to the default branch.
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		for _, event := range events {
			select {
			case ch <- event:
			default:
			}
		}
	}
}
