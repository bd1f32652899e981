package ws

import (
	"roomqueue/internal/domain"
	"roomqueue/internal/hub"
	"roomqueue/internal/queue"
)

// Server-to-client events. Every payload carries a "type" discriminator;
// clients that connect after an event missed it and resync over REST.
type queueUpdateEvent struct {
	Type        string `json:"type"`
	QueueLength int    `json:"queueLength"`
	Position    int    `json:"position,omitempty"`
}

type yourTurnEvent struct {
	Type string `json:"type"`
}

type newBookingEvent struct {
	Type    string         `json:"type"`
	Booking domain.Booking `json:"booking"`
}

type bookingCancelledEvent struct {
	Type      string `json:"type"`
	BookingID int64  `json:"bookingId"`
}

// Notifier delivers queue changes over the hub: the length goes to every
// subscriber, each waiting entry additionally gets its own position.
type Notifier struct {
	hub *hub.Hub
}

func NewNotifier(h *hub.Hub) *Notifier {
	return &Notifier{hub: h}
}

func (n *Notifier) QueueChanged(length int, positions []queue.Position) {
	n.hub.Broadcast(queueUpdateEvent{Type: "queue_update", QueueLength: length})
	for _, p := range positions {
		n.hub.Send(p.SID, queueUpdateEvent{Type: "queue_update", QueueLength: length, Position: p.Pos})
	}
}

func (n *Notifier) TurnGranted(sid hub.SessionID) {
	n.hub.Send(sid, yourTurnEvent{Type: "your_turn"})
}

// Announcer broadcasts ledger changes to every subscriber.
type Announcer struct {
	hub *hub.Hub
}

func NewAnnouncer(h *hub.Hub) *Announcer {
	return &Announcer{hub: h}
}

func (a *Announcer) BookingCreated(b domain.Booking) {
	a.hub.Broadcast(newBookingEvent{Type: "new_booking", Booking: b})
}

func (a *Announcer) BookingCancelled(bookingID int64) {
	a.hub.Broadcast(bookingCancelledEvent{Type: "booking_cancelled", BookingID: bookingID})
}
