package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/dkeye/Lobby/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// binding is the Bound state: room and identity are always set together.
type binding struct {
	room     domain.RoomName
	identity domain.Identity
}

// Session is the state machine of one connection. It starts Unbound, is Bound
// to exactly one room after a successful join, and returns to Unbound for good
// on disconnect. Transitions of one session never interleave.
type Session struct {
	sid     core.SessionID
	dir     *core.Directory
	out     Emitter
	now     func() time.Time
	metrics *metrics.Metrics
	log     zerolog.Logger

	mu     sync.Mutex
	bound  *binding
	closed bool
}

func NewSession(sid core.SessionID, dir *core.Directory, out Emitter, now func() time.Time, m *metrics.Metrics) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		sid:     sid,
		dir:     dir,
		out:     out,
		now:     now,
		metrics: m,
		log:     log.With().Str("module", "app.session").Str("sid", string(sid)).Logger(),
	}
}

func (s *Session) ID() core.SessionID { return s.sid }

// Binding returns the current room and identity; ok is false while Unbound.
func (s *Session) Binding() (room domain.RoomName, identity domain.Identity, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound == nil {
		return "", "", false
	}
	return s.bound.room, s.bound.identity, true
}

// Handle applies one inbound event. A rejected event is reported to the
// connection with an error event and its cause is returned; nothing else
// changes. Once disconnected the session ignores every event.
func (s *Session) Handle(evt core.Inbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}

	var err error
	switch e := evt.(type) {
	case core.JoinRoom:
		err = s.join(e)
	case core.SendMessage:
		err = s.send(e)
	case core.Disconnect:
		s.disconnect()
	default:
		err = fmt.Errorf("%w: %s", core.ErrUnknownEvent, evt.Type())
	}

	if err != nil {
		s.reject(evt.Type(), err)
	}
	return err
}

// Disconnect runs the disconnect transition. Calling it again is a no-op.
func (s *Session) Disconnect() {
	_ = s.Handle(core.Disconnect{})
}

func (s *Session) join(e core.JoinRoom) error {
	identity, err := domain.NewIdentity(e.Pseudo)
	if err != nil {
		return err
	}
	room, err := domain.NewRoomName(e.Room)
	if err != nil {
		return err
	}

	if s.bound != nil {
		s.leave()
	}

	count := s.dir.Join(room, core.Member{SID: s.sid, Identity: identity})
	s.bound = &binding{room: room, identity: identity}

	s.out.SendTo(s.sid, core.Joined{Room: room, Pseudo: identity, UsersCount: count})
	s.out.Broadcast(room, s.sid, core.UserJoined{Pseudo: identity, UsersCount: count})

	s.log.Info().Str("room", string(room)).Str("pseudo", string(identity)).Int("users", count).Msg("joined room")
	return nil
}

func (s *Session) send(e core.SendMessage) error {
	if s.bound == nil {
		return domain.ErrNotInRoom
	}
	msg, err := domain.NewMessage(s.bound.identity, e.Content, s.now())
	if err != nil {
		return err
	}

	// The sender gets its own message back; clients render on this echo.
	s.out.Broadcast(s.bound.room, "", core.MessageEvent(msg))

	s.log.Debug().Str("room", string(s.bound.room)).Str("pseudo", string(msg.Sender)).Msg("message broadcast")
	return nil
}

func (s *Session) disconnect() {
	if s.bound != nil {
		s.leave()
	}
	s.closed = true
	s.log.Debug().Msg("session closed")
}

// leave vacates the current room and tells whoever remains.
func (s *Session) leave() {
	b := s.bound
	s.bound = nil

	count, ok := s.dir.Leave(b.room, s.sid)
	if ok {
		s.out.Broadcast(b.room, "", core.UserLeft{Pseudo: b.identity, UsersCount: count})
	}
	s.log.Info().Str("room", string(b.room)).Str("pseudo", string(b.identity)).Int("users", count).Msg("left room")
}

func (s *Session) reject(t core.EventType, err error) {
	s.metrics.EventRejected(domain.Reason(err))
	s.out.SendTo(s.sid, core.ErrorEvent{Message: domain.UserMessage(err)})
	s.log.Debug().Err(err).Str("event", string(t)).Msg("event rejected")
}
