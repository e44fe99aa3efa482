package room

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/louisbranch/estimate.space/internal/platform/errors"
	platformotel "github.com/louisbranch/estimate.space/internal/platform/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/estimate.space/internal/services/estimate/room"

// maxJoinAttempts bounds retries when a join races a room teardown.
const maxJoinAttempts = 3

// Config configures a Service.
type Config struct {
	// Transport is required.
	Transport Transport
	// Journal is optional.
	Journal Journal
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
	// Seed feeds icon and phrase generation.
	Seed               int64
	AgreementThreshold float64
	DefaultCardSet     CardSet
}

// Service is the entry point the gateway drives.
type Service struct {
	registry       *Registry
	defaultCardSet CardSet
	phrases        *PhraseGenerator
	tracer         trace.Tracer
}

// NewService builds the engine.
func NewService(cfg Config) (*Service, error) {
	if cfg.Transport == nil {
		return nil, errors.New("transport is required")
	}
	threshold := cfg.AgreementThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultAgreementThreshold
	}
	e := &env{
		transport: cfg.Transport,
		journal:   cfg.Journal,
		clock:     cfg.Clock,
		icons:     NewIconPicker(cfg.Seed),
		threshold: threshold,
	}
	return &Service{
		registry:       newRegistry(e),
		defaultCardSet: NormalizeCardSet(cfg.DefaultCardSet, DefaultCardSet),
		phrases:        NewPhraseGenerator(cfg.Seed + 1),
		tracer:         platformotel.Tracer(tracerName),
	}, nil
}

// Registry exposes the room table.
func (s *Service) Registry() *Registry {
	return s.registry
}

// NewReaper returns a reaper over the service registry.
func (s *Service) NewReaper(interval, idle time.Duration) *Reaper {
	return NewReaper(s.registry, interval, idle)
}

// JoinRequest is a join intent.
type JoinRequest struct {
	ConnectionID string
	SessionID    string
	Name         string
	Role         string
	// CardSet is only used when an observer creates the room.
	CardSet []string
}

// JoinResult describes a successful join.
type JoinResult struct {
	Room        *Room
	Participant Participant
	Created     bool
}

// Join adds a connection to a room. Observers create the room when it does
// not exist; estimators require an existing room.
func (s *Service) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := s.tracer.Start(ctx, "room.Join")
	defer span.End()

	sessionID, err := NormalizeSessionID(req.SessionID)
	if err != nil {
		return nil, endWithError(span, err)
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		return nil, endWithError(span, err)
	}
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("participant.role", string(role)),
	)

	for attempt := 0; attempt < maxJoinAttempts; attempt++ {
		var (
			room    *Room
			created bool
		)
		if role == RoleObserver {
			room, created = s.registry.Create(sessionID, NormalizeCardSet(req.CardSet, s.defaultCardSet))
		} else {
			room, err = s.registry.Get(sessionID)
			if err != nil {
				return nil, endWithError(span, err)
			}
		}

		participant, err := room.join(req.ConnectionID, req.Name, role)
		if apperrors.CodeOf(err) == apperrors.CodeRoomClosed {
			span.AddEvent("room closed during join")
			continue
		}
		if err != nil {
			return nil, endWithError(span, err)
		}
		span.SetAttributes(attribute.Bool("room.created", created))
		return &JoinResult{Room: room, Participant: *participant, Created: created}, nil
	}
	return nil, endWithError(span, errRoomClosed(sessionID))
}

// Vote records symbol for connectionID, replacing any earlier vote. Votes are
// ignored while the round is revealed and until an observer resets it, as are
// blank symbols and votes from non-estimators.
func (s *Service) Vote(ctx context.Context, room *Room, connectionID, symbol string) bool {
	_, span := s.start(ctx, "room.Vote", room)
	defer span.End()
	return room.vote(connectionID, symbol)
}

// Reveal reveals the round and returns its statistics.
func (s *Service) Reveal(ctx context.Context, room *Room, connectionID string) (RevealResult, bool) {
	_, span := s.start(ctx, "room.Reveal", room)
	defer span.End()

	result, ok := room.reveal(connectionID)
	if ok {
		span.SetAttributes(
			attribute.Int("votes.total", result.TotalVotes),
			attribute.Bool("votes.strict_consensus", result.StrictConsensus),
		)
	}
	return result, ok
}

// Reset starts a new round. Only observers may reset.
func (s *Service) Reset(ctx context.Context, room *Room, connectionID string) error {
	_, span := s.start(ctx, "room.Reset", room)
	defer span.End()

	if _, err := room.reset(connectionID); err != nil {
		return endWithError(span, err)
	}
	return nil
}

// Celebrate relays a manual celebration to the room.
func (s *Service) Celebrate(ctx context.Context, room *Room, connectionID string) bool {
	_, span := s.start(ctx, "room.Celebrate", room)
	defer span.End()
	return room.celebrate(connectionID)
}

// Leave removes connectionID from room and reports whether the room closed.
func (s *Service) Leave(ctx context.Context, room *Room, connectionID string) bool {
	_, span := s.start(ctx, "room.Leave", room)
	defer span.End()

	_, closed := room.leave(connectionID)
	span.SetAttributes(attribute.Bool("room.closed", closed))
	return closed
}

// ListActive returns the discovery snapshot.
func (s *Service) ListActive() []SessionSummary {
	return s.registry.ListActive()
}

// SuggestSessionID returns a phrase not registered to an open room.
func (s *Service) SuggestSessionID() string {
	return s.phrases.Unused(s.registry.Has)
}

func (s *Service) start(ctx context.Context, name string, room *Room) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("session.id", room.SessionID())))
}

func endWithError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
	return err
}
