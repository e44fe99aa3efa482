package telemetry

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/louisbranch/estimate.space/internal/platform/timeouts"
	"github.com/louisbranch/estimate.space/internal/services/estimate/storage"
)

// Store is the append side of a journal store.
type Store interface {
	AppendJournalEntry(ctx context.Context, entry storage.JournalEntry) error
}

// Emitter stamps and appends journal entries.
type Emitter struct {
	store Store
	clock func() time.Time
}

// NewEmitter creates an emitter backed by store.
func NewEmitter(store Store) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit appends entry, stamping its timestamp when unset.
// A nil emitter or store makes Emit a no-op.
func (e *Emitter) Emit(ctx context.Context, entry storage.JournalEntry) error {
	if e == nil || e.store == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		clock := e.clock
		if clock == nil {
			clock = time.Now
		}
		entry.Timestamp = clock().UTC()
	}
	return e.store.AppendJournalEntry(ctx, entry)
}

// Queue delivers entries to an Emitter from a single background writer.
type Queue struct {
	emitter *Emitter
	entries chan storage.JournalEntry
	done    chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewQueue starts a writer draining up to size buffered entries into emitter.
func NewQueue(emitter *Emitter, size int) *Queue {
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		emitter: emitter,
		entries: make(chan storage.JournalEntry, size),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Record enqueues entry without blocking. It reports false when the entry was
// dropped because the queue is full or closed.
func (q *Queue) Record(entry storage.JournalEntry) bool {
	if q == nil {
		return false
	}
	if entry.Timestamp.IsZero() && q.emitter != nil && q.emitter.clock != nil {
		entry.Timestamp = q.emitter.clock().UTC()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return false
	}
	select {
	case q.entries <- entry:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Dropped returns how many entries were discarded.
func (q *Queue) Dropped() int64 {
	if q == nil {
		return 0
	}
	return q.dropped.Load()
}

// Close stops accepting entries and waits for the buffered ones to be written.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.entries)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for entry := range q.entries {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.JournalWrite)
		if err := q.emitter.Emit(ctx, entry); err != nil {
			log.Printf("telemetry: append %s for %s: %v", entry.Kind, entry.SessionID, err)
		}
		cancel()
	}
}
