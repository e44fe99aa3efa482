package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	apperrors "github.com/louisbranch/estimate.space/internal/platform/errors"
	"github.com/louisbranch/estimate.space/internal/platform/i18n"
	"github.com/louisbranch/estimate.space/internal/platform/id"
	"github.com/louisbranch/estimate.space/internal/services/estimate/room"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

const (
	maxMessageBytes        = 32 * 1024
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxFrameBurst          = 80
	maxDecodeErrorsPerConn = 3
)

// Inbound intents.
const (
	intentGetActiveSessions = "getActiveSessions"
	intentJoin              = "join"
	intentVote              = "vote"
	intentRevealVotes       = "revealVotes"
	intentReset             = "reset"
	intentCelebrate         = "celebrate"
)

const eventErrorMessage = "errorMessage"

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reload  bool   `json:"reload"`
}

type joinPayload struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	SessionID string   `json:"sessionId"`
	CardSet   []string `json:"cardSet"`
}

type votePayload struct {
	Vote string `json:"vote"`
}

// wsSession is the inbound side of one connection and its room binding.
type wsSession struct {
	peer *wsPeer

	mu   sync.Mutex
	room *room.Room
}

func (s *wsSession) bind(r *room.Room) {
	s.mu.Lock()
	s.room = r
	s.mu.Unlock()
}

func (s *wsSession) currentRoom() *room.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

type wsGateway struct {
	service *room.Service
	hub     *wsHub
}

func (g *wsGateway) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	connectionID, err := id.New(id.PrefixConnection)
	if err != nil {
		log.Printf("estimate: connection id: %v", err)
		return
	}
	tag := i18n.FromRequest(conn.Request())
	peer := newWSPeer(connectionID, conn, tag)
	g.hub.add(peer)
	go peer.writeLoop()

	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
	}
	session := &wsSession{peer: peer}
	log.Printf("estimate: connection %s opened", connectionID)
	defer func() {
		if bound := session.currentRoom(); bound != nil {
			g.service.Leave(context.WithoutCancel(ctx), bound, connectionID)
		}
		g.hub.remove(connectionID)
		peer.finish()
		<-peer.done
		log.Printf("estimate: connection %s closed", connectionID)
	}()

	conn.MaxPayloadBytes = maxMessageBytes
	limiter := rate.NewLimiter(rate.Limit(maxFramesPerSecond), maxFrameBurst)
	decodeErrors := 0

	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				writeWSError(peer, "", apperrors.New(apperrors.CodeInvalidFrame, "message too large"))
				continue
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			decodeErrors++
			writeWSError(peer, "", apperrors.New(apperrors.CodeInvalidFrame, "invalid frame payload"))
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			writeWSError(peer, frame.RequestID, apperrors.New(apperrors.CodeInvalidFrame, "payload too large"))
			continue
		}
		if !limiter.Allow() {
			writeWSError(peer, frame.RequestID, apperrors.New(apperrors.CodeRateLimited, "rate limit exceeded"))
			return
		}

		g.handleFrame(ctx, session, frame)
	}
}

func (g *wsGateway) handleFrame(ctx context.Context, session *wsSession, frame wsFrame) {
	peer := session.peer
	bound := session.currentRoom()

	switch frame.Type {
	case intentGetActiveSessions:
		peer.enqueue(wsFrame{
			Type:      room.EventActiveSessions,
			RequestID: frame.RequestID,
			Payload:   mustJSON(g.service.ListActive()),
		})
	case intentJoin:
		g.handleJoin(ctx, session, frame)
	case intentVote:
		if bound == nil {
			return
		}
		symbol, ok := decodeVote(frame.Payload)
		if !ok {
			writeWSError(peer, frame.RequestID, apperrors.New(apperrors.CodeInvalidFrame, "invalid vote payload"))
			return
		}
		g.service.Vote(ctx, bound, peer.id, symbol)
	case intentRevealVotes:
		if bound != nil {
			g.service.Reveal(ctx, bound, peer.id)
		}
	case intentReset:
		if bound == nil {
			return
		}
		if err := g.service.Reset(ctx, bound, peer.id); err != nil {
			writeWSError(peer, frame.RequestID, err)
		}
	case intentCelebrate:
		if bound != nil {
			g.service.Celebrate(ctx, bound, peer.id)
		}
	default:
		writeWSError(peer, frame.RequestID, apperrors.New(apperrors.CodeInvalidFrame, "unsupported frame type %q", frame.Type))
	}
}

func (g *wsGateway) handleJoin(ctx context.Context, session *wsSession, frame wsFrame) {
	peer := session.peer
	var payload joinPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		writeWSError(peer, frame.RequestID, apperrors.New(apperrors.CodeInvalidFrame, "invalid join payload"))
		return
	}
	if bound := session.currentRoom(); bound != nil {
		writeWSError(peer, frame.RequestID, apperrors.New(apperrors.CodeAlreadyJoined,
			"connection already joined %s", bound.SessionID()).With("SessionID", bound.SessionID()))
		return
	}

	result, err := g.service.Join(ctx, room.JoinRequest{
		ConnectionID: peer.id,
		SessionID:    payload.SessionID,
		Name:         payload.Name,
		Role:         payload.Role,
		CardSet:      payload.CardSet,
	})
	if err != nil {
		writeWSError(peer, frame.RequestID, err)
		return
	}
	session.bind(result.Room)
	if result.Created {
		log.Printf("estimate: room %s created by %s", result.Room.SessionID(), peer.id)
	}
}

// decodeVote accepts a bare JSON string or an object with a vote field.
func decodeVote(payload json.RawMessage) (string, bool) {
	var symbol string
	if err := json.Unmarshal(payload, &symbol); err == nil {
		return symbol, true
	}
	var wrapped votePayload
	if err := json.Unmarshal(payload, &wrapped); err == nil {
		return wrapped.Vote, true
	}
	return "", false
}

// writeWSError queues a localised errorMessage frame. Benign codes are not
// surfaced.
func writeWSError(peer *wsPeer, requestID string, err error) {
	code := apperrors.CodeOf(err)
	if code.Benign() {
		return
	}
	peer.enqueue(wsFrame{
		Type:      eventErrorMessage,
		RequestID: requestID,
		Payload: mustJSON(wsError{
			Code:    string(code),
			Message: apperrors.LocalizedMessage(err, peer.tag),
			Reload:  code.Reload(),
		}),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("estimate: marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
