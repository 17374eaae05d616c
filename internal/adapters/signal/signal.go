package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/devcircle/internal/app"
	"github.com/dkeye/devcircle/internal/config"
	"github.com/dkeye/devcircle/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type CollabWSController struct {
	Relay   *app.Relay
	Limiter *RateLimiter

	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
}

func NewCollabWSController(relay *app.Relay, cfg *config.Config) *CollabWSController {
	return &CollabWSController{
		Relay:      relay,
		Limiter:    NewRateLimiter(cfg.Relay.RateLimit, cfg.Relay.RateInterval),
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		sendBuffer: cfg.SendBuffer,
	}
}

// WsConn is one collaborator's socket. It is the relay's sink for that session.
type WsConn struct {
	sid  core.SessionID
	conn *websocket.Conn
	send chan core.Frame

	pending pendingEdits

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) SID() core.SessionID { return c.sid }

// TrySend queues f without blocking; a full queue is ErrBackpressure.
func (c *WsConn) TrySend(f core.Frame) error {
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

func (c *WsConn) Close() {
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

// HandleCollab upgrades the request and serves the session until the socket or ctx ends.
func (ctl *CollabWSController) HandleCollab(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsConn{
		sid:  core.SessionID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, ctl.sendBuffer),
	}
	log.Info().Str("module", "signal").Str("sid", string(conn.sid)).Str("client", c.GetString("client_token")).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	ctl.Relay.Connect(conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
