// Package app wires the room directory, the per-connection sessions and the
// connection registry into one relay.
package app

import (
	"time"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/dkeye/Lobby/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Relay owns the directory and every live connection. Construct one per process
// and hand it to the transport.
type Relay struct {
	Directory *core.Directory
	Registry  *Registry
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func NewRelay(dir *core.Directory, reg *Registry, m *metrics.Metrics) *Relay {
	return &Relay{
		Directory: dir,
		Registry:  reg,
		Metrics:   m,
		Now:       time.Now,
	}
}

// Open registers a freshly accepted connection and returns its Unbound session.
func (r *Relay) Open(sid core.SessionID, conn core.SignalConnection) *Session {
	r.Registry.Bind(sid, conn)
	r.Metrics.ConnOpened()
	log.Info().Str("module", "app.relay").Str("sid", string(sid)).Msg("connection opened")
	return NewSession(sid, r.Directory, r.Registry, r.Now, r.Metrics)
}

// Close runs the disconnect transition of sess and forgets its connection.
// It is safe to call more than once.
func (r *Relay) Close(sess *Session) {
	sess.Disconnect()
	if r.Registry.Unbind(sess.ID()) {
		r.Metrics.ConnClosed()
		log.Info().Str("module", "app.relay").Str("sid", string(sess.ID())).Msg("connection closed")
	}
}

// Rooms lists the live rooms.
func (r *Relay) Rooms() []core.RoomInfo {
	return r.Directory.List()
}

// Room looks up one live room.
func (r *Relay) Room(name domain.RoomName) (core.RoomInfo, bool) {
	size := r.Directory.Size(name)
	if size == 0 {
		return core.RoomInfo{}, false
	}
	return core.RoomInfo{Name: name, UsersCount: size}, true
}

// Shutdown closes every connection; their sessions then disconnect normally.
func (r *Relay) Shutdown() {
	n := r.Registry.CloseAll()
	log.Info().Str("module", "app.relay").Int("connections", n).Msg("closing connections")
}
