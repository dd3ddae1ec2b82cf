package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	msgMalformed   = "Malformed event."
	msgUnknown     = "Unknown event."
	msgRateLimited = "Too many events, slow down."
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(cancel context.CancelFunc, sess *app.Session, c *WsSignalConn) {
	sid := sess.ID()
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.limiter.Forget(sid)
		ctl.Relay.Close(sess)
		c.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(sess, data)
	}
}

func (ctl *SignalWSController) handleSignal(sess *app.Session, data []byte) {
	sid := sess.ID()

	if !ctl.limiter.Allow(sid) {
		ctl.reject(sid, "rate_limited", msgRateLimited)
		return
	}

	evt, err := core.Decode(data)
	if err != nil {
		if errors.Is(err, core.ErrUnknownEvent) {
			ctl.reject(sid, "unknown_event", msgUnknown)
		} else {
			ctl.reject(sid, "malformed", msgMalformed)
		}
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad frame")
		return
	}

	ctl.Relay.Metrics.EventReceived(string(evt.Type()))
	// Rejections are already reported to the client by the session.
	_ = sess.Handle(evt)
}

func (ctl *SignalWSController) reject(sid core.SessionID, reason, msg string) {
	ctl.Relay.Metrics.EventRejected(reason)
	ctl.Relay.Registry.SendTo(sid, core.ErrorEvent{Message: msg})
}
