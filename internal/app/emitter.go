package app

import (
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=emitter.go -destination=mock_emitter_test.go -package=app

// Emitter delivers outbound events on behalf of sessions.
// Implementations must never call back into a Session.
type Emitter interface {
	// SendTo delivers evt to a single connection.
	SendTo(sid core.SessionID, evt core.Event)
	// Broadcast delivers evt to every member of room except one connection.
	// An empty except reaches every member.
	Broadcast(room domain.RoomName, except core.SessionID, evt core.Event)
}
