package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"roomqueue/internal/hub"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(c *wsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection; its defer is the single disconnect
// reconciliation path and runs exactly once per connection.
func (ctl *Controller) readPump(sid hub.SessionID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Hub.Unsubscribe(sid)
		ctl.Queue.Remove(sid)
		c.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("readPump read error")
			return
		}
		ctl.handleMessage(sid, c, data)
	}
}

func (ctl *Controller) handleMessage(sid hub.SessionID, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		return
	}

	switch env.Type {
	case "enter_queue":
		ctl.handleEnterQueue(sid, data)
	case "complete":
		ctl.Queue.Complete(sid)
	case "ping":
		b, _ := json.Marshal(map[string]string{"type": "pong"})
		_ = c.TrySend(b)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown message")
	}
}

// handleEnterQueue tolerates malformed payloads: the queue has no
// user-facing errors, a bad join is simply ignored.
func (ctl *Controller) handleEnterQueue(sid hub.SessionID, data []byte) {
	var p struct {
		Type      string `json:"type"`
		StudentID string `json:"studentId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad enter_queue payload")
		return
	}
	ctl.Queue.Join(sid, p.StudentID)
}
