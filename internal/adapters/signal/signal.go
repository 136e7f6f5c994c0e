package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/adapters/auth"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/presence"
	"github.com/dkeye/Chat/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

// SignalWSController speaks the chat protocol over one WebSocket per client.
type SignalWSController struct {
	Presence *presence.Coordinator
	Registry *app.Registry
	Limiter  *RateLimiter
	Opts     Options
}

func NewSignalWSController(p *presence.Coordinator, reg *app.Registry, limiter *RateLimiter, opts Options) *SignalWSController {
	return &SignalWSController{
		Presence: p,
		Registry: reg,
		Limiter:  limiter,
		Opts:     opts,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnectionClosed
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades an authenticated request and starts the pumps.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	caller := core.Caller{
		ConnectionID: core.ConnectionID(uuid.NewString()),
		Username:     c.GetString(auth.UsernameKey),
	}
	log.Info().
		Str("module", "signal").
		Str("conn", string(caller.ConnectionID)).
		Str("user", caller.Username).
		Str("client", c.GetString(ClientTokenKey)).
		Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Opts.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(caller, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, caller, conn)
}

// ClientTokenKey is the gin context key of the per-browser session token.
const ClientTokenKey = "client_token"
