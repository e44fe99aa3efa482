package server

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/estimate.space/internal/platform/timeouts"
	"github.com/louisbranch/estimate.space/internal/services/estimate/room"
	"golang.org/x/text/language"
)

const peerOutboxSize = 64

// wsPeer is one connection's outbound side. Frames are queued without
// blocking and written by a dedicated goroutine.
type wsPeer struct {
	id     string
	tag    language.Tag
	conn   io.WriteCloser
	outbox chan wsFrame
	done   chan struct{}

	mu     sync.Mutex
	closed bool

	writeTimeout time.Duration
}

func newWSPeer(id string, conn io.WriteCloser, tag language.Tag) *wsPeer {
	return &wsPeer{
		id:           id,
		tag:          tag,
		conn:         conn,
		outbox:       make(chan wsFrame, peerOutboxSize),
		done:         make(chan struct{}),
		writeTimeout: timeouts.WSWrite,
	}
}

// enqueue queues frame for delivery. A full outbox closes the peer.
func (p *wsPeer) enqueue(frame wsFrame) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	select {
	case p.outbox <- frame:
		return true
	default:
		log.Printf("estimate: peer %s outbox full, disconnecting", p.id)
		p.closed = true
		close(p.outbox)
		return false
	}
}

// finish stops accepting frames. The writer flushes what is queued and then
// closes the connection.
func (p *wsPeer) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.outbox)
}

type deadlineWriter interface {
	SetWriteDeadline(time.Time) error
}

func (p *wsPeer) writeLoop() {
	defer close(p.done)
	defer func() {
		_ = p.conn.Close()
	}()

	encoder := json.NewEncoder(p.conn)
	deadliner, _ := p.conn.(deadlineWriter)
	for frame := range p.outbox {
		if deadliner != nil {
			_ = deadliner.SetWriteDeadline(time.Now().Add(p.writeTimeout))
		}
		if err := encoder.Encode(frame); err != nil {
			p.finish()
			for range p.outbox {
			}
			return
		}
	}
}

// wsHub routes engine events to peers. It implements room.Transport and
// never calls back into the engine.
type wsHub struct {
	mu       sync.Mutex
	peers    map[string]*wsPeer
	channels map[string]map[string]*wsPeer
}

var _ room.Transport = (*wsHub)(nil)

func newWSHub() *wsHub {
	return &wsHub{
		peers:    make(map[string]*wsPeer),
		channels: make(map[string]map[string]*wsPeer),
	}
}

func (h *wsHub) add(peer *wsPeer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[peer.id] = peer
}

func (h *wsHub) remove(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(connectionID)
}

func (h *wsHub) removeLocked(connectionID string) *wsPeer {
	peer, ok := h.peers[connectionID]
	if !ok {
		return nil
	}
	delete(h.peers, connectionID)
	for sessionID, members := range h.channels {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.channels, sessionID)
		}
	}
	return peer
}

// Send implements room.Transport.
func (h *wsHub) Send(connectionID string, event room.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peer, ok := h.peers[connectionID]; ok {
		peer.enqueue(eventFrame(event))
	}
}

// Publish implements room.Transport.
func (h *wsHub) Publish(sessionID string, event room.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	frame := eventFrame(event)
	for _, peer := range h.channels[sessionID] {
		peer.enqueue(frame)
	}
}

// PublishAll implements room.Transport.
func (h *wsHub) PublishAll(event room.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	frame := eventFrame(event)
	for _, peer := range h.peers {
		peer.enqueue(frame)
	}
}

// Subscribe implements room.Transport.
func (h *wsHub) Subscribe(sessionID, connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peer, ok := h.peers[connectionID]
	if !ok {
		return
	}
	members, ok := h.channels[sessionID]
	if !ok {
		members = make(map[string]*wsPeer)
		h.channels[sessionID] = members
	}
	members[connectionID] = peer
}

// Unsubscribe implements room.Transport.
func (h *wsHub) Unsubscribe(sessionID, connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.channels[sessionID]
	delete(members, connectionID)
	if len(members) == 0 {
		delete(h.channels, sessionID)
	}
}

// Disconnect implements room.Transport.
func (h *wsHub) Disconnect(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peer := h.removeLocked(connectionID); peer != nil {
		peer.finish()
	}
}

// closeAll finishes every peer. Used on shutdown since hijacked websocket
// connections outlive http.Server.Shutdown.
func (h *wsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, peer := range h.peers {
		h.removeLocked(id)
		peer.finish()
	}
}

func (h *wsHub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func eventFrame(event room.Event) wsFrame {
	return wsFrame{Type: event.Name, Payload: mustJSON(event.Payload)}
}
