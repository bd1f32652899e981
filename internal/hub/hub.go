// Package hub is the process-wide publish/subscribe fabric. It fans
// events out to connected clients but never owns their transport: a
// subscriber's connection is closed by the adapter that opened it.
package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Frame is a marshalled event ready for the wire.
type Frame []byte

// SessionID identifies one client connection.
type SessionID string

var ErrBackpressure = errors.New("backpressure")

// Conn abstracts a subscriber's transport endpoint. TrySend must not
// block; a full peer returns ErrBackpressure and the event is dropped
// for that subscriber only. Per-subscriber ordering is the transport's
// contract: one buffered channel drained by one write pump.
type Conn interface {
	TrySend(Frame) error
}

type Hub struct {
	mu   sync.RWMutex
	subs map[SessionID]Conn
}

func New() *Hub {
	return &Hub{subs: make(map[SessionID]Conn)}
}

func (h *Hub) Subscribe(sid SessionID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sid] = conn
	log.Info().Str("module", "hub").Str("sid", string(sid)).Int("subscribers", len(h.subs)).Msg("subscribed")
}

func (h *Hub) Unsubscribe(sid SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sid)
	log.Info().Str("module", "hub").Str("sid", string(sid)).Int("subscribers", len(h.subs)).Msg("unsubscribed")
}

// Broadcast delivers v to every subscriber. There is no replay: a client
// that subscribes later resynchronizes over the REST surface.
func (h *Hub) Broadcast(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("broadcast marshal")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sid, conn := range h.subs {
		if err := conn.TrySend(frame); err != nil {
			log.Warn().Str("module", "hub").Str("sid", string(sid)).Msg("broadcast dropped")
		}
	}
}

// Send delivers v to exactly one subscriber. Returns false if the
// subscriber is gone or its buffer is full.
func (h *Hub) Send(sid SessionID, v any) bool {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("send marshal")
		return false
	}
	h.mu.RLock()
	conn, ok := h.subs[sid]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Str("module", "hub").Str("sid", string(sid)).Msg("unicast dropped")
		return false
	}
	return true
}
