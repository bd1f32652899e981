package ws

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"roomqueue/internal/hub"
	"roomqueue/internal/queue"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Hub   *hub.Hub
	Queue *queue.Queue

	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(h *hub.Hub, q *queue.Queue, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		Hub:        h,
		Queue:      q,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan hub.Frame

	mu     sync.RWMutex
	closed bool
}

// TrySend holds the read lock so Close cannot tear the channel down
// under a concurrent unicast.
func (c *wsConn) TrySend(f hub.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
		return nil
	default:
		return hub.ErrBackpressure
	}
}

func (c *wsConn) Close() {
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

// Handle upgrades the request and runs the connection until it drops.
// The session id is minted per connection: the client token cookie is
// browser-scoped, and two tabs must each own their queue entry and
// disconnect reconciliation.
func (ctl *Controller) Handle(c *gin.Context) {
	sid := hub.SessionID(c.GetString("client_token") + "#" + uuid.NewString())
	log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("new WS connection")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		conn.SetReadLimit(ctl.ReadLimit)
	}

	wc := &wsConn{
		conn: conn,
		send: make(chan hub.Frame, 32),
	}
	ctl.Hub.Subscribe(sid, wc)

	go ctl.writePump(wc)
	go ctl.readPump(sid, wc)
}
