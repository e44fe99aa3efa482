package room

import (
	"sync"
	"time"

	"github.com/louisbranch/estimate.space/internal/services/estimate/storage"
)

// recordingTransport fans events out to per-connection inboxes using the
// subscriptions current at publish time.
type recordingTransport struct {
	mu           sync.Mutex
	subs         map[string]map[string]bool
	inbox        map[string][]Event
	broadcasts   []Event
	disconnected map[string]int
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{
		subs:         make(map[string]map[string]bool),
		inbox:        make(map[string][]Event),
		disconnected: make(map[string]int),
	}
}

func (t *recordingTransport) Send(connectionID string, event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inbox[connectionID] = append(t.inbox[connectionID], event)
}

func (t *recordingTransport) Publish(sessionID string, event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for connectionID := range t.subs[sessionID] {
		t.inbox[connectionID] = append(t.inbox[connectionID], event)
	}
}

func (t *recordingTransport) PublishAll(event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.broadcasts = append(t.broadcasts, event)
}

func (t *recordingTransport) Subscribe(sessionID, connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs[sessionID] == nil {
		t.subs[sessionID] = make(map[string]bool)
	}
	t.subs[sessionID][connectionID] = true
}

func (t *recordingTransport) Unsubscribe(sessionID, connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs[sessionID], connectionID)
}

func (t *recordingTransport) Disconnect(connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnected[connectionID]++
}

func (t *recordingTransport) names(connectionID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, event := range t.inbox[connectionID] {
		out = append(out, event.Name)
	}
	return out
}

func (t *recordingTransport) last(connectionID, name string) (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	events := t.inbox[connectionID]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Name == name {
			return events[i], true
		}
	}
	return Event{}, false
}

func (t *recordingTransport) count(connectionID, name string) int {
	n := 0
	for _, got := range t.names(connectionID) {
		if got == name {
			n++
		}
	}
	return n
}

func (t *recordingTransport) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inbox = make(map[string][]Event)
	t.broadcasts = nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []storage.JournalEntry
}

func (j *fakeJournal) Record(entry storage.JournalEntry) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return true
}

func (j *fakeJournal) kinds() []storage.JournalKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]storage.JournalKind, 0, len(j.entries))
	for _, entry := range j.entries {
		out = append(out, entry.Kind)
	}
	return out
}
