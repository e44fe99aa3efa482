package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/estimate.space/internal/services/estimate/room"
	"github.com/louisbranch/estimate.space/internal/services/estimate/storage"
	"golang.org/x/net/websocket"
)

type wsTestFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

func newTestHandler(t *testing.T, journal storage.JournalStore) (http.Handler, *room.Service) {
	t.Helper()

	hub := newWSHub()
	service, err := room.NewService(room.Config{Transport: hub, Seed: 7})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return newHandler(handlerConfig{
		service: service,
		hub:     hub,
		journal: journal,
		mcp:     newMCPHandler(service),
	}), service
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler, _ := newTestHandler(t, nil)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame map[string]any) {
	t.Helper()
	if err := json.NewEncoder(conn).Encode(frame); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) wsTestFrame {
	t.Helper()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	var raw []byte
	if err := websocket.Message.Receive(conn, &raw); err != nil {
		t.Fatalf("receive server frame: %v", err)
	}
	var got wsTestFrame
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode server frame %q: %v", raw, err)
	}
	return got
}

// readUntil skips frames until one of type frameType arrives.
func readUntil(t *testing.T, conn *websocket.Conn, frameType string) wsTestFrame {
	t.Helper()
	for i := 0; i < 20; i++ {
		if got := readFrame(t, conn); got.Type == frameType {
			return got
		}
	}
	t.Fatalf("no %s frame received", frameType)
	return wsTestFrame{}
}

func readError(t *testing.T, conn *websocket.Conn) wsError {
	t.Helper()
	got := readUntil(t, conn, eventErrorMessage)
	var payload wsError
	if err := json.Unmarshal(got.Payload, &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return payload
}

func join(t *testing.T, conn *websocket.Conn, sessionID, role string, cardSet ...string) {
	t.Helper()
	payload := map[string]any{"name": role, "role": role, "sessionId": sessionID}
	if len(cardSet) > 0 {
		payload["cardSet"] = cardSet
	}
	writeFrame(t, conn, map[string]any{"type": intentJoin, "payload": payload})
	readUntil(t, conn, room.EventUpdateUsers)
}

func TestWebSocketGetActiveSessions(t *testing.T) {
	conn := dialWS(t, newTestServer(t), "/ws")

	writeFrame(t, conn, map[string]any{"type": intentGetActiveSessions, "request_id": "req-1"})
	got := readFrame(t, conn)
	if got.Type != room.EventActiveSessions || got.RequestID != "req-1" {
		t.Fatalf("frame = %+v, want activeSessions for req-1", got)
	}
	if strings.TrimSpace(string(got.Payload)) != "[]" {
		t.Fatalf("payload = %s, want []", got.Payload)
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	observer := dialWS(t, srv, "/ws")
	estimator := dialWS(t, srv, "/ws")

	join(t, observer, "red-sky", "observer", "1", "2", "3", "5")
	join(t, estimator, "red-sky", "estimator")
	readUntil(t, observer, room.EventWaitingForVotes)

	writeFrame(t, estimator, map[string]any{"type": intentVote, "payload": "5"})
	readUntil(t, observer, room.EventAllVoted)

	writeFrame(t, observer, map[string]any{"type": intentRevealVotes})
	revealed := readUntil(t, estimator, room.EventVotesRevealed)
	var payload room.RevealPayload
	if err := json.Unmarshal(revealed.Payload, &payload); err != nil {
		t.Fatalf("decode reveal payload: %v", err)
	}
	if payload.Result.ConsensusVote != "5" || !payload.Result.StrictConsensus {
		t.Fatalf("result = %+v, want strict consensus on 5", payload.Result)
	}
	readUntil(t, estimator, room.EventCelebrate)

	writeFrame(t, observer, map[string]any{"type": intentReset})
	readUntil(t, estimator, room.EventResetVotes)
}

func TestWebSocketVoteAcceptsObjectPayload(t *testing.T) {
	srv := newTestServer(t)
	observer := dialWS(t, srv, "/ws")
	estimator := dialWS(t, srv, "/ws")
	join(t, observer, "red-sky", "observer")
	join(t, estimator, "red-sky", "estimator")

	writeFrame(t, estimator, map[string]any{"type": intentVote, "payload": map[string]any{"vote": "8"}})
	readUntil(t, observer, room.EventAllVoted)
}

func TestWebSocketEstimatorJoinMissingSession(t *testing.T) {
	conn := dialWS(t, newTestServer(t), "/ws")

	writeFrame(t, conn, map[string]any{
		"type":    intentJoin,
		"payload": map[string]any{"name": "Ana", "role": "estimator", "sessionId": "nope"},
	})
	got := readError(t, conn)
	if got.Code != "SESSION_NOT_FOUND" || got.Reload {
		t.Fatalf("error = %+v", got)
	}
	if !strings.Contains(got.Message, "nope") {
		t.Fatalf("message = %q, want session id", got.Message)
	}
}

func TestWebSocketErrorsAreLocalized(t *testing.T) {
	conn := dialWS(t, newTestServer(t), "/ws?lang=pt-BR")

	writeFrame(t, conn, map[string]any{
		"type":    intentJoin,
		"payload": map[string]any{"name": "Ana", "role": "estimator", "sessionId": "nope"},
	})
	got := readError(t, conn)
	if !strings.HasPrefix(got.Message, "A sessão nope não existe") {
		t.Fatalf("message = %q, want pt-BR text", got.Message)
	}
}

func TestWebSocketRevealInProgressRequestsReload(t *testing.T) {
	srv := newTestServer(t)
	observer := dialWS(t, srv, "/ws")
	join(t, observer, "red-sky", "observer")
	writeFrame(t, observer, map[string]any{"type": intentRevealVotes})
	readUntil(t, observer, room.EventVotesRevealed)

	late := dialWS(t, srv, "/ws")
	writeFrame(t, late, map[string]any{
		"type":    intentJoin,
		"payload": map[string]any{"name": "Bo", "role": "estimator", "sessionId": "red-sky"},
	})
	got := readError(t, late)
	if got.Code != "REVEAL_IN_PROGRESS" || !got.Reload {
		t.Fatalf("error = %+v, want reveal in progress with reload", got)
	}
}

func TestWebSocketSecondJoinRejected(t *testing.T) {
	conn := dialWS(t, newTestServer(t), "/ws")
	join(t, conn, "red-sky", "observer")

	writeFrame(t, conn, map[string]any{
		"type":    intentJoin,
		"payload": map[string]any{"name": "x", "role": "observer", "sessionId": "blue-sun"},
	})
	if got := readError(t, conn); got.Code != "ALREADY_JOINED" {
		t.Fatalf("error = %+v, want ALREADY_JOINED", got)
	}
}

func TestWebSocketEstimatorResetUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	observer := dialWS(t, srv, "/ws")
	estimator := dialWS(t, srv, "/ws")
	join(t, observer, "red-sky", "observer")
	join(t, estimator, "red-sky", "estimator")

	writeFrame(t, estimator, map[string]any{"type": intentReset, "request_id": "req-reset"})
	got := readUntil(t, estimator, eventErrorMessage)
	if got.RequestID != "req-reset" || !strings.Contains(string(got.Payload), "UNAUTHORIZED") {
		t.Fatalf("frame = %+v, want UNAUTHORIZED for req-reset", got)
	}
}

func TestWebSocketUnboundIntentsIgnored(t *testing.T) {
	conn := dialWS(t, newTestServer(t), "/ws")

	for _, intent := range []string{intentVote, intentRevealVotes, intentReset, intentCelebrate} {
		writeFrame(t, conn, map[string]any{"type": intent, "payload": "5"})
	}
	writeFrame(t, conn, map[string]any{"type": intentGetActiveSessions})
	if got := readFrame(t, conn); got.Type != room.EventActiveSessions {
		t.Fatalf("frame type = %q, want activeSessions only", got.Type)
	}
}

func TestWebSocketUnknownTypeReturnsInvalidFrame(t *testing.T) {
	conn := dialWS(t, newTestServer(t), "/ws")

	writeFrame(t, conn, map[string]any{"type": "dance", "request_id": "req-bad"})
	got := readFrame(t, conn)
	if got.Type != eventErrorMessage || got.RequestID != "req-bad" {
		t.Fatalf("frame = %+v", got)
	}
	if !strings.Contains(string(got.Payload), "INVALID_FRAME") {
		t.Fatalf("payload = %s, want INVALID_FRAME", got.Payload)
	}
}

func TestWebSocketClosesAfterDecodeErrorBudget(t *testing.T) {
	conn := dialWS(t, newTestServer(t), "/ws")

	for i := 0; i < maxDecodeErrorsPerConn; i++ {
		if err := websocket.Message.Send(conn, "not json"); err != nil {
			t.Fatalf("send: %v", err)
		}
		if got := readFrame(t, conn); got.Type != eventErrorMessage {
			t.Fatalf("frame type = %q, want errorMessage", got.Type)
		}
	}
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	var raw []byte
	if err := websocket.Message.Receive(conn, &raw); err == nil {
		t.Fatalf("expected closed connection, got %s", raw)
	}
}

func TestWebSocketLastObserverDisconnectEndsSession(t *testing.T) {
	srv := newTestServer(t)
	observer := dialWS(t, srv, "/ws")
	estimator := dialWS(t, srv, "/ws")
	join(t, observer, "red-sky", "observer")
	join(t, estimator, "red-sky", "estimator")

	_ = observer.Close()

	got := readUntil(t, estimator, room.EventSessionEnded)
	var payload room.ClosedPayload
	if err := json.Unmarshal(got.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !payload.Reload || payload.SessionID != "red-sky" {
		t.Fatalf("payload = %+v", payload)
	}

	_ = estimator.SetDeadline(time.Now().Add(2 * time.Second))
	for {
		var raw []byte
		if err := websocket.Message.Receive(estimator, &raw); err != nil {
			break
		}
	}

	fresh := dialWS(t, srv, "/ws")
	writeFrame(t, fresh, map[string]any{"type": intentGetActiveSessions})
	if got := readFrame(t, fresh); strings.TrimSpace(string(got.Payload)) != "[]" {
		t.Fatalf("active sessions = %s, want []", got.Payload)
	}
}

func TestWebSocketSessionListBroadcast(t *testing.T) {
	srv := newTestServer(t)
	watcher := dialWS(t, srv, "/ws")
	writeFrame(t, watcher, map[string]any{"type": intentGetActiveSessions})
	readFrame(t, watcher)

	observer := dialWS(t, srv, "/ws")
	join(t, observer, "red-sky", "observer")

	got := readUntil(t, watcher, room.EventSessionListUpdated)
	var sessions []room.SessionSummary
	if err := json.Unmarshal(got.Payload, &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != "red-sky" {
		t.Fatalf("sessions = %+v", sessions)
	}
}
