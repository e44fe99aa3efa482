// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session errors
	CodeSessionIDMissing Code = "SESSION_ID_MISSING"
	CodeSessionIDInvalid Code = "SESSION_ID_INVALID"
	CodeSessionNotFound  Code = "SESSION_NOT_FOUND"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeRoomClosed       Code = "ROOM_CLOSED"

	// Round errors
	CodeRevealInProgress Code = "REVEAL_IN_PROGRESS"
	CodeUnauthorized     Code = "UNAUTHORIZED"

	// Participant errors
	CodeInvalidRole   Code = "INVALID_ROLE"
	CodeAlreadyJoined Code = "ALREADY_JOINED"

	// Transport errors
	CodeInvalidFrame Code = "INVALID_FRAME"
	CodeRateLimited  Code = "RATE_LIMITED"
)

// Reload reports whether a client receiving this code must reload its view.
//
// Only a rejected join into a revealed round leaves the client in a state it
// cannot recover from without starting over.
func (c Code) Reload() bool {
	return c == CodeRevealInProgress
}

// Benign reports whether the code describes a success-with-existing outcome
// that is never surfaced to clients.
func (c Code) Benign() bool {
	return c == CodeAlreadyExists
}
