package room

// Outbound event names.
const (
	EventActiveSessions     = "activeSessions"
	EventSessionListUpdated = "sessionListUpdated"
	EventCardSetDefined     = "cardSetDefined"
	EventUpdateUsers        = "updateUsers"
	EventAllVoted           = "allVoted"
	EventWaitingForVotes    = "waitingForVotes"
	EventVotesRevealed      = "votesRevealed"
	EventResetVotes         = "resetVotes"
	EventCelebrate          = "celebrate"
	EventSessionExpired     = "sessionExpired"
	EventSessionEnded       = "sessionEnded"
)

// Celebrate reasons.
const (
	CelebrateConsensus = "consensus"
	CelebrateManual    = "manual"
)

// Close reasons carried by sessionEnded and sessionExpired.
const (
	CloseReasonObserverLeft = "observer_left"
	CloseReasonIdle         = "idle"
)

// Event is one named notification with a JSON-encodable payload.
type Event struct {
	Name    string
	Payload any
}

// Transport delivers engine events to connections.
//
// Every method is called with a room lock held and must return without
// blocking on network I/O. Delivery is fire-and-forget.
type Transport interface {
	// Send delivers event to one connection.
	Send(connectionID string, event Event)
	// Publish delivers event to every connection subscribed to sessionID.
	Publish(sessionID string, event Event)
	// PublishAll delivers event to every open connection.
	PublishAll(event Event)
	// Subscribe adds a connection to a session channel.
	Subscribe(sessionID, connectionID string)
	// Unsubscribe removes a connection from a session channel.
	Unsubscribe(sessionID, connectionID string)
	// Disconnect closes a connection after its pending events are flushed.
	// The connection stops receiving channel events immediately.
	Disconnect(connectionID string)
}

// ParticipantView is the wire form of one participant in a snapshot.
type ParticipantView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Role  Role    `json:"role"`
	Icon  string  `json:"icon"`
	Voted bool    `json:"voted"`
	Vote  *string `json:"vote"`
}

// SessionSummary is one entry of the discovery list.
type SessionSummary struct {
	SessionID string  `json:"sessionId"`
	UserCount int     `json:"userCount"`
	CardSet   CardSet `json:"cardSet"`
}

// RevealPayload is published with votesRevealed.
type RevealPayload struct {
	Participants []ParticipantView `json:"participants"`
	Result       RevealResult      `json:"result"`
}

// CelebratePayload is published with celebrate.
type CelebratePayload struct {
	Reason string `json:"reason"`
}

// ClosedPayload is published with sessionEnded and sessionExpired.
// Clients always reload on these events.
type ClosedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
	Reload    bool   `json:"reload"`
}
