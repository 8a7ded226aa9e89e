package errs

import "errors"

const (
	StatusNotFound              = "NOT_FOUND"
	StatusSelfInvite            = "SELF_INVITE"
	StatusRecipientOffline      = "RECIPIENT_OFFLINE"
	StatusRecipientNotReceptive = "RECIPIENT_NOT_RECEPTIVE"
	StatusNotParticipant        = "NOT_PARTICIPANT"
	StatusMatchEnded            = "MATCH_ENDED"
	StatusMatchNotStarted       = "MATCH_NOT_STARTED"
	StatusNotYourTurn           = "NOT_YOUR_TURN"
	StatusIllegalMove           = "ILLEGAL_MOVE"
	StatusInvalidInvite         = "INVALID_INVITE"
	StatusPersistenceFailure    = "PERSISTENCE_FAILURE"
	StatusInvalidPayload        = "INVALID_PAYLOAD"
	StatusInternal              = "INTERNAL_ERROR"
)

// Error is a player-facing rejection. Status is the machine-readable code
// written back to the originating connection.
type Error struct {
	Status  string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrUserNotFound          = &Error{StatusNotFound, "User not found"}
	ErrMatchNotFound         = &Error{StatusNotFound, "Match id not found"}
	ErrSelfInvite            = &Error{StatusSelfInvite, "Cannot invite self"}
	ErrRecipientOffline      = &Error{StatusRecipientOffline, "User not online"}
	ErrRecipientNotReceptive = &Error{StatusRecipientNotReceptive, "User not in invite room"}
	ErrNotParticipant        = &Error{StatusNotParticipant, "Invalid user for this match"}
	ErrMatchEnded            = &Error{StatusMatchEnded, "Match has ended"}
	ErrMatchNotStarted       = &Error{StatusMatchNotStarted, "Match has not started"}
	ErrNotYourTurn           = &Error{StatusNotYourTurn, "Not your turn"}
	ErrIllegalMove           = &Error{StatusIllegalMove, "Invalid move"}
	ErrInvalidInvite         = &Error{StatusInvalidInvite, "Invalid invite id"}
	ErrPersistenceFailure    = &Error{StatusPersistenceFailure, "Game failed to save"}
	ErrInvalidPayload        = &Error{StatusInvalidPayload, "Invalid payload"}
)

// StatusOf maps any error to a status code, INTERNAL_ERROR for errors that
// are not player-facing.
func StatusOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return StatusInternal
}

// MessageOf returns the player-facing message, hiding internal details.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error"
}
