package app

import (
	"sync"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/dkeye/Lobby/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Registry maps live connections to their transport and implements Emitter.
// Room membership is read from the Directory at delivery time.
type Registry struct {
	dir     *core.Directory
	policy  Policy
	metrics *metrics.Metrics

	mu    sync.RWMutex
	conns map[core.SessionID]core.SignalConnection
}

func NewRegistry(dir *core.Directory, policy Policy, m *metrics.Metrics) *Registry {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Registry{
		dir:     dir,
		policy:  policy,
		metrics: m,
		conns:   make(map[core.SessionID]core.SignalConnection),
	}
}

func (r *Registry) Bind(sid core.SessionID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = conn
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound connection")
}

// Unbind forgets sid and reports whether it was bound.
func (r *Registry) Unbind(sid core.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[sid]; !ok {
		return false
	}
	delete(r.conns, sid)
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound connection")
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) SendTo(sid core.SessionID, evt core.Event) {
	frame, ok := r.encode(evt)
	if !ok {
		return
	}
	r.mu.RLock()
	conn, bound := r.conns[sid]
	r.mu.RUnlock()
	if !bound {
		return
	}
	r.deliver("", sid, conn, frame)
}

func (r *Registry) Broadcast(room domain.RoomName, except core.SessionID, evt core.Event) {
	frame, ok := r.encode(evt)
	if !ok {
		return
	}

	type target struct {
		sid  core.SessionID
		conn core.SignalConnection
	}
	r.mu.RLock()
	targets := lo.FilterMap(r.dir.Recipients(room, except), func(sid core.SessionID, _ int) (target, bool) {
		conn, ok := r.conns[sid]
		return target{sid: sid, conn: conn}, ok
	})
	r.mu.RUnlock()

	for _, t := range targets {
		r.deliver(room, t.sid, t.conn, frame)
	}
	log.Debug().
		Str("module", "app.registry").
		Str("room", string(room)).
		Str("event", string(evt.Type())).
		Int("recipients", len(targets)).
		Msg("broadcast")
}

// CloseAll closes every live connection. Each adapter then runs its own
// disconnect cleanup.
func (r *Registry) CloseAll() int {
	r.mu.RLock()
	conns := lo.Values(r.conns)
	r.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
	return len(conns)
}

func (r *Registry) encode(evt core.Event) (core.Frame, bool) {
	frame, err := core.Encode(evt)
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Msg("encode event")
		return nil, false
	}
	return frame, true
}

func (r *Registry) deliver(room domain.RoomName, sid core.SessionID, conn core.SignalConnection, frame core.Frame) {
	err := conn.TrySend(frame)
	if err == nil {
		r.metrics.FrameSent()
		return
	}
	r.metrics.FrameDropped()

	logger := log.With().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Logger()
	switch r.policy.OnBackPressure(room, sid) {
	case KickMember:
		logger.Warn().Err(err).Msg("slow member kicked")
		conn.Close()
	case DropFrame, NoAction:
		logger.Debug().Err(err).Msg("frame dropped")
	}
}
