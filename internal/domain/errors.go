package domain

import "errors"

var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrInvalidRoom     = errors.New("invalid room")
	ErrInvalidMessage  = errors.New("invalid message")
	ErrNotInRoom       = errors.New("not in room")
	ErrSessionClosed   = errors.New("session closed")
)

// UserMessage returns the text sent to a client whose event was rejected with err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidIdentity):
		return "Invalid pseudo (1-20 characters)."
	case errors.Is(err, ErrInvalidRoom):
		return "Invalid room name (1-30 characters)."
	case errors.Is(err, ErrInvalidMessage):
		return "Invalid message (1-500 characters)."
	case errors.Is(err, ErrNotInRoom):
		return "Join a room before sending a message."
	default:
		return "Request rejected."
	}
}

// Reason is a short machine-friendly label for err, used in logs and metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, ErrInvalidRoom):
		return "invalid_room"
	case errors.Is(err, ErrInvalidMessage):
		return "invalid_message"
	case errors.Is(err, ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	default:
		return "other"
	}
}
