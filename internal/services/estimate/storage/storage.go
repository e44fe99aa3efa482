// Package storage defines the persistence contracts of the estimate service.
//
// Only the audit journal is persisted. Rooms live in memory and are never
// rebuilt from journal entries.
package storage

import (
	"context"
	"time"
)

// JournalKind names one room lifecycle event.
type JournalKind string

const (
	KindRoomCreated       JournalKind = "room.created"
	KindParticipantJoined JournalKind = "participant.joined"
	KindParticipantLeft   JournalKind = "participant.left"
	KindVotesRevealed     JournalKind = "votes.revealed"
	KindVotesReset        JournalKind = "votes.reset"
	KindRoomEnded         JournalKind = "room.ended"
	KindRoomExpired       JournalKind = "room.expired"
)

// JournalEntry is one append-only audit record.
type JournalEntry struct {
	// Seq is assigned by the store on append.
	Seq          int64
	Timestamp    time.Time
	SessionID    string
	Kind         JournalKind
	ConnectionID string
	Role         string
	Name         string
	// Detail is a JSON document whose shape depends on Kind.
	Detail string
}

// JournalQuery selects a page of journal entries.
type JournalQuery struct {
	// Filter is an AIP-160 expression over session_id, kind, role and ts.
	Filter    string
	PageSize  int
	PageToken string
	// Descending lists newest entries first.
	Descending bool
}

// JournalPage is one page of entries plus the token for the next page.
type JournalPage struct {
	Entries       []JournalEntry
	NextPageToken string
}

// JournalStore persists and lists journal entries.
type JournalStore interface {
	AppendJournalEntry(ctx context.Context, entry JournalEntry) error
	ListJournalEntries(ctx context.Context, query JournalQuery) (JournalPage, error)
}
