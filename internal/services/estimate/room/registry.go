package room

import (
	"sort"
	"sync"

	"github.com/louisbranch/estimate.space/internal/services/estimate/storage"
)

// Registry owns the session id to room table.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	env   *env
}

func newRegistry(e *env) *Registry {
	return &Registry{rooms: make(map[string]*Room), env: e}
}

// Create returns the open room registered under sessionID, or registers a new
// one with cardSet. A closed room still registered under sessionID is replaced.
func (g *Registry) Create(sessionID string, cardSet CardSet) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.rooms[sessionID]; ok && !existing.Closed() {
		return existing, false
	}
	room := newRoom(sessionID, NormalizeCardSet(cardSet, nil), g.env, g)
	g.rooms[sessionID] = room

	if g.env.journal != nil {
		g.env.journal.Record(storage.JournalEntry{
			Timestamp: room.createdAt,
			SessionID: sessionID,
			Kind:      storage.KindRoomCreated,
			Detail:    detailJSON(map[string]any{"cardSet": room.cardSet}),
		})
	}
	g.env.transport.PublishAll(Event{Name: EventSessionListUpdated, Payload: g.listActiveLocked()})
	return room, true
}

// Get returns the open room registered under sessionID.
func (g *Registry) Get(sessionID string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[sessionID]
	if !ok || room.Closed() {
		return nil, errSessionNotFound(sessionID)
	}
	return room, nil
}

// Has reports whether sessionID is registered to an open room.
func (g *Registry) Has(sessionID string) bool {
	_, err := g.Get(sessionID)
	return err == nil
}

// Remove deletes sessionID only while it still maps to room.
func (g *Registry) Remove(sessionID string, room *Room) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if current, ok := g.rooms[sessionID]; !ok || current != room {
		return false
	}
	delete(g.rooms, sessionID)
	g.env.transport.PublishAll(Event{Name: EventSessionListUpdated, Payload: g.listActiveLocked()})
	return true
}

// ListActive returns a summary of every open room sorted by session id.
func (g *Registry) ListActive() []SessionSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listActiveLocked()
}

func (g *Registry) listActiveLocked() []SessionSummary {
	out := make([]SessionSummary, 0, len(g.rooms))
	for id, room := range g.rooms {
		if room.Closed() {
			continue
		}
		out = append(out, SessionSummary{
			SessionID: id,
			UserCount: room.ParticipantCount(),
			CardSet:   room.cardSet.Clone(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Rooms returns a snapshot of the registered rooms.
func (g *Registry) Rooms() []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		out = append(out, room)
	}
	return out
}

// Len returns the number of registered rooms.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}
