package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// ClientTokenKey is the gin context key holding the browser's client token.
const ClientTokenKey = "client_token"

// WSConn is the part of *websocket.Conn the pumps use.
type WSConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

type Options struct {
	ReadLimit  int64
	SendBuffer int
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration

	EventLimit  int
	EventWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 4096
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	return o
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:   cfg.ReadLimit,
		SendBuffer:  cfg.SendBuffer,
		PingPeriod:  cfg.PingPeriod,
		PongWait:    cfg.PongWait,
		WriteWait:   cfg.WriteWait,
		EventLimit:  cfg.EventRate.Events,
		EventWindow: cfg.EventRate.Window,
	}
}

type WsSignalConn struct {
	conn WSConn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws WSConn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

// TrySend queues f without blocking.
func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

type SignalWSController struct {
	Relay *app.Relay

	opts     Options
	limiter  *EventRateLimiter
	upgrader websocket.Upgrader
}

// NewSignalWSController builds the /ws handler. checkOrigin may be nil to
// accept any origin.
func NewSignalWSController(relay *app.Relay, opts Options, checkOrigin func(r *http.Request) bool) *SignalWSController {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	opts = opts.withDefaults()
	return &SignalWSController{
		Relay:   relay,
		opts:    opts,
		limiter: NewEventRateLimiter(opts.EventLimit, opts.EventWindow),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("remote", c.ClientIP()).Msg("ws upgrade")
		return
	}
	sid := core.SessionID(uuid.NewString())
	ctl.Serve(ctx, sid, ws, c.GetString(ClientTokenKey))
}

// Serve runs an accepted connection until it closes or ctx is done. It
// returns immediately; the pumps run in their own goroutines.
func (ctl *SignalWSController) Serve(ctx context.Context, sid core.SessionID, ws WSConn, client string) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", client).Msg("new WS connection")

	ws.SetReadLimit(ctl.opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	sess := ctl.Relay.Open(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(cancel, sess, conn)
}
