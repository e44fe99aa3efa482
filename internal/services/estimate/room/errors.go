package room

import (
	"strconv"

	apperrors "github.com/louisbranch/estimate.space/internal/platform/errors"
)

func errSessionIDMissing() error {
	return apperrors.New(apperrors.CodeSessionIDMissing, "session id is required")
}

func errSessionIDInvalid() error {
	return apperrors.New(apperrors.CodeSessionIDInvalid, "session id longer than %d runes", MaxSessionIDRunes).
		With("Max", strconv.Itoa(MaxSessionIDRunes))
}

func errSessionNotFound(sessionID string) error {
	return apperrors.New(apperrors.CodeSessionNotFound, "session %s not found", sessionID).
		With("SessionID", sessionID)
}

func errRoomClosed(sessionID string) error {
	return apperrors.New(apperrors.CodeRoomClosed, "session %s closed", sessionID).
		With("SessionID", sessionID)
}

func errRevealInProgress(sessionID string) error {
	return apperrors.New(apperrors.CodeRevealInProgress, "session %s is revealed", sessionID).
		With("SessionID", sessionID)
}

func errUnauthorized() error {
	return apperrors.New(apperrors.CodeUnauthorized, "only observers can reset")
}

func errInvalidRole(role string) error {
	return apperrors.New(apperrors.CodeInvalidRole, "invalid role %q", role).
		With("Role", role)
}

func errAlreadyJoined(sessionID string) error {
	return apperrors.New(apperrors.CodeAlreadyJoined, "connection already joined %s", sessionID).
		With("SessionID", sessionID)
}
