package room

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/louisbranch/estimate.space/internal/services/estimate/storage"
)

// MaxSessionIDRunes caps client supplied session ids.
const MaxSessionIDRunes = 64

// NormalizeSessionID trims id and validates its length.
func NormalizeSessionID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errSessionIDMissing()
	}
	if utf8.RuneCountInString(id) > MaxSessionIDRunes {
		return "", errSessionIDInvalid()
	}
	return id, nil
}

// Journal receives room lifecycle entries. Record must not block.
type Journal interface {
	Record(entry storage.JournalEntry) bool
}

// env is shared by every room of a registry.
type env struct {
	transport Transport
	journal   Journal
	clock     func() time.Time
	icons     *IconPicker
	threshold float64
}

func (e *env) now() time.Time {
	if e.clock == nil {
		return time.Now().UTC()
	}
	return e.clock()
}

// Room is one estimation session.
type Room struct {
	mu           sync.Mutex
	sessionID    string
	cardSet      CardSet
	participants map[string]*Participant
	revealed     bool
	announced    bool
	nextSeq      int64
	createdAt    time.Time
	lastActivity time.Time

	// closed and count are written under mu and read lock-free by the registry.
	closed atomic.Bool
	count  atomic.Int32

	env      *env
	registry *Registry
}

func newRoom(sessionID string, cardSet CardSet, e *env, registry *Registry) *Room {
	now := e.now()
	return &Room{
		sessionID:    sessionID,
		cardSet:      cardSet.Clone(),
		participants: make(map[string]*Participant),
		createdAt:    now,
		lastActivity: now,
		env:          e,
		registry:     registry,
	}
}

// SessionID returns the room identifier.
func (r *Room) SessionID() string {
	return r.sessionID
}

// CardSet returns a copy of the room card set.
func (r *Room) CardSet() CardSet {
	return r.cardSet.Clone()
}

// Closed reports whether the room was torn down.
func (r *Room) Closed() bool {
	return r.closed.Load()
}

// ParticipantCount returns the current membership size without locking.
func (r *Room) ParticipantCount() int {
	return int(r.count.Load())
}

// Revealed reports whether the current round is revealed.
func (r *Room) Revealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revealed
}

// LastActivity returns the time of the last join, vote, reveal or reset.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// Participants returns the current snapshot, votes masked until reveal.
func (r *Room) Participants() []ParticipantView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) join(connectionID, name string, role Role) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return nil, errRoomClosed(r.sessionID)
	}
	if _, ok := r.participants[connectionID]; ok {
		return nil, errAlreadyJoined(r.sessionID)
	}
	if role == RoleEstimator && r.revealed {
		return nil, errRevealInProgress(r.sessionID)
	}

	now := r.env.now()
	r.nextSeq++
	p := &Participant{
		ConnectionID: connectionID,
		DisplayName:  NormalizeName(name),
		Role:         role,
		Icon:         r.env.icons.Pick(role),
		JoinedAt:     now,
		seq:          r.nextSeq,
	}
	r.participants[connectionID] = p
	r.count.Store(int32(len(r.participants)))
	r.lastActivity = now

	t := r.env.transport
	t.Subscribe(r.sessionID, connectionID)
	cardSet := Event{Name: EventCardSetDefined, Payload: r.cardSet.Clone()}
	if !r.announced {
		r.announced = true
		t.Publish(r.sessionID, cardSet)
	} else {
		t.Send(connectionID, cardSet)
	}
	t.Publish(r.sessionID, Event{Name: EventUpdateUsers, Payload: r.snapshotLocked()})
	if role == RoleEstimator {
		t.Publish(r.sessionID, Event{Name: EventWaitingForVotes})
	}

	r.record(storage.JournalEntry{
		Kind:         storage.KindParticipantJoined,
		ConnectionID: connectionID,
		Role:         string(role),
		Name:         p.DisplayName,
		Detail:       detailJSON(map[string]string{"icon": p.Icon}),
	})
	copied := *p
	return &copied, nil
}

func (r *Room) vote(connectionID, symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() || r.revealed {
		return false
	}
	p, ok := r.participants[connectionID]
	if !ok || p.Role != RoleEstimator {
		return false
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return false
	}

	p.Vote = &symbol
	r.lastActivity = r.env.now()
	t := r.env.transport
	t.Publish(r.sessionID, Event{Name: EventUpdateUsers, Payload: r.snapshotLocked()})
	if r.allVotedLocked() {
		t.Publish(r.sessionID, Event{Name: EventAllVoted})
	}
	return true
}

func (r *Room) reveal(connectionID string) (RevealResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return RevealResult{}, false
	}
	if _, ok := r.participants[connectionID]; !ok {
		return RevealResult{}, false
	}

	r.revealed = true
	r.lastActivity = r.env.now()
	result := Aggregate(r.votesLocked(), r.cardSet, r.env.threshold)

	t := r.env.transport
	t.Publish(r.sessionID, Event{Name: EventVotesRevealed, Payload: RevealPayload{
		Participants: r.snapshotLocked(),
		Result:       result,
	}})
	if result.StrictConsensus {
		t.Publish(r.sessionID, Event{Name: EventCelebrate, Payload: CelebratePayload{Reason: CelebrateConsensus}})
	}

	r.record(storage.JournalEntry{
		Kind:         storage.KindVotesRevealed,
		ConnectionID: connectionID,
		Detail: detailJSON(map[string]any{
			"totalVotes":       result.TotalVotes,
			"average":          result.Average,
			"consensusVote":    result.ConsensusVote,
			"agreementReached": result.AgreementReached,
			"strictConsensus":  result.StrictConsensus,
		}),
	})
	return result, true
}

func (r *Room) reset(connectionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return false, nil
	}
	p, ok := r.participants[connectionID]
	if !ok {
		return false, nil
	}
	if p.Role != RoleObserver {
		return false, errUnauthorized()
	}

	for _, participant := range r.participants {
		if participant.Role == RoleEstimator {
			participant.Vote = nil
		}
	}
	r.revealed = false
	r.lastActivity = r.env.now()

	t := r.env.transport
	t.Publish(r.sessionID, Event{Name: EventUpdateUsers, Payload: r.snapshotLocked()})
	t.Publish(r.sessionID, Event{Name: EventResetVotes})

	r.record(storage.JournalEntry{
		Kind:         storage.KindVotesReset,
		ConnectionID: connectionID,
		Role:         string(p.Role),
		Name:         p.DisplayName,
	})
	return true, nil
}

func (r *Room) celebrate(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return false
	}
	if _, ok := r.participants[connectionID]; !ok {
		return false
	}
	r.env.transport.Publish(r.sessionID, Event{Name: EventCelebrate, Payload: CelebratePayload{Reason: CelebrateManual}})
	return true
}

// leave removes connectionID and reports whether the room closed as a result.
func (r *Room) leave(connectionID string) (removed, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return false, false
	}
	p, ok := r.participants[connectionID]
	if !ok {
		return false, false
	}
	delete(r.participants, connectionID)
	r.count.Store(int32(len(r.participants)))

	t := r.env.transport
	t.Unsubscribe(r.sessionID, connectionID)
	r.record(storage.JournalEntry{
		Kind:         storage.KindParticipantLeft,
		ConnectionID: connectionID,
		Role:         string(p.Role),
		Name:         p.DisplayName,
	})

	if len(r.participants) == 0 {
		r.closeLocked(storage.KindRoomEnded, "empty")
		return true, true
	}

	observers, estimators := r.roleCountsLocked()
	if observers == 0 {
		t.Publish(r.sessionID, Event{Name: EventSessionEnded, Payload: ClosedPayload{
			SessionID: r.sessionID,
			Reason:    CloseReasonObserverLeft,
			Reload:    true,
		}})
		r.disconnectAllLocked()
		r.closeLocked(storage.KindRoomEnded, CloseReasonObserverLeft)
		return true, true
	}

	t.Publish(r.sessionID, Event{Name: EventUpdateUsers, Payload: r.snapshotLocked()})
	if estimators > 0 {
		if r.allVotedLocked() {
			t.Publish(r.sessionID, Event{Name: EventAllVoted})
		} else {
			t.Publish(r.sessionID, Event{Name: EventWaitingForVotes})
		}
	}
	return true, false
}

// expireIdle closes the room when it has been idle longer than idle at now.
// It reports whether this call closed the room.
func (r *Room) expireIdle(now time.Time, idle time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() || now.Sub(r.lastActivity) <= idle {
		return false
	}
	r.env.transport.Publish(r.sessionID, Event{Name: EventSessionExpired, Payload: ClosedPayload{
		SessionID: r.sessionID,
		Reason:    CloseReasonIdle,
		Reload:    true,
	}})
	r.disconnectAllLocked()
	r.closeLocked(storage.KindRoomExpired, CloseReasonIdle)
	return true
}

func (r *Room) disconnectAllLocked() {
	for _, p := range r.sortedLocked() {
		r.env.transport.Unsubscribe(r.sessionID, p.ConnectionID)
		r.env.transport.Disconnect(p.ConnectionID)
	}
}

func (r *Room) closeLocked(kind storage.JournalKind, reason string) {
	r.closed.Store(true)
	r.participants = make(map[string]*Participant)
	r.count.Store(0)
	r.record(storage.JournalEntry{
		Kind:   kind,
		Detail: detailJSON(map[string]string{"reason": reason}),
	})
	if r.registry != nil {
		r.registry.Remove(r.sessionID, r)
	}
}

func (r *Room) roleCountsLocked() (observers, estimators int) {
	for _, p := range r.participants {
		if p.Role == RoleObserver {
			observers++
		} else {
			estimators++
		}
	}
	return observers, estimators
}

func (r *Room) allVotedLocked() bool {
	estimators := 0
	for _, p := range r.participants {
		if p.Role != RoleEstimator {
			continue
		}
		estimators++
		if !p.Voted() {
			return false
		}
	}
	return estimators > 0
}

// votesLocked returns estimator votes in join order.
func (r *Room) votesLocked() []string {
	var votes []string
	for _, p := range r.sortedLocked() {
		if p.Role == RoleEstimator && p.Voted() {
			votes = append(votes, *p.Vote)
		}
	}
	return votes
}

func (r *Room) sortedLocked() []*Participant {
	out := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (r *Room) snapshotLocked() []ParticipantView {
	sorted := r.sortedLocked()
	views := make([]ParticipantView, 0, len(sorted))
	for _, p := range sorted {
		view := ParticipantView{
			ID:    p.ConnectionID,
			Name:  p.DisplayName,
			Role:  p.Role,
			Icon:  p.Icon,
			Voted: p.Voted(),
		}
		if r.revealed && p.Vote != nil {
			vote := *p.Vote
			view.Vote = &vote
		}
		views = append(views, view)
	}
	return views
}

func (r *Room) record(entry storage.JournalEntry) {
	if r.env.journal == nil {
		return
	}
	entry.SessionID = r.sessionID
	entry.Timestamp = r.env.now()
	r.env.journal.Record(entry)
}

func detailJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
