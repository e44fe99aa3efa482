package room

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Role is the part a participant plays in a room.
type Role string

const (
	RoleObserver  Role = "observer"
	RoleEstimator Role = "estimator"
)

const (
	// MaxNameRunes caps display names.
	MaxNameRunes = 40
	// AnonymousName replaces blank display names.
	AnonymousName = "anonymous"
)

// ParseRole validates a client supplied role.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleObserver:
		return RoleObserver, nil
	case RoleEstimator:
		return RoleEstimator, nil
	default:
		return "", errInvalidRole(value)
	}
}

// Participant is one connection's membership in a room.
type Participant struct {
	ConnectionID string
	DisplayName  string
	Role         Role
	// Vote is nil until the participant votes and after every reset.
	Vote     *string
	Icon     string
	JoinedAt time.Time
	seq      int64
}

// Voted reports whether the participant holds a vote.
func (p *Participant) Voted() bool {
	return p.Vote != nil
}

// NormalizeName trims, NFC-normalises and caps a display name.
func NormalizeName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return AnonymousName
	}
	if utf8.RuneCountInString(name) > MaxNameRunes {
		runes := []rune(name)
		name = strings.TrimSpace(string(runes[:MaxNameRunes]))
	}
	return name
}
