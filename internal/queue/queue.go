// Package queue is the global admission queue: a FIFO of connected
// clients where the head holds the exclusive right to attempt one
// booking transaction. At most one entry is Active at any time.
package queue

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"roomqueue/internal/clock"
	"roomqueue/internal/hub"
)

// Position is one waiting entry's recomputed 1-based place in line.
// Positions are derived from the live slice on every change, never
// cached: they shift as the queue shrinks ahead of an entry.
type Position struct {
	SID hub.SessionID
	Pos int
}

// Notifier receives queue state changes. Calls are made outside the
// queue's critical section and must not call back into the queue.
type Notifier interface {
	QueueChanged(length int, positions []Position)
	TurnGranted(sid hub.SessionID)
}

type entry struct {
	sid       hub.SessionID
	studentID string
	joinedAt  time.Time
}

type Queue struct {
	mu      sync.Mutex
	waiting []*entry
	active  *entry

	// grantSeq is bumped on every activation so a stale watchdog
	// cannot evict a later holder.
	grantSeq     uint64
	grantPending bool

	grantDelay time.Duration
	turnTTL    time.Duration
	notifier   Notifier
	clk        clock.Clock
}

func New(grantDelay, turnTTL time.Duration, notifier Notifier, clk clock.Clock) *Queue {
	return &Queue{
		grantDelay: grantDelay,
		turnTTL:    turnTTL,
		notifier:   notifier,
		clk:        clk,
	}
}

// Join appends a Waiting entry. A join without a student id is ignored.
// If nobody holds the turn, the new sole entry is granted it after the
// configured delay (immediately when the delay is zero).
func (q *Queue) Join(sid hub.SessionID, studentID string) {
	if studentID == "" {
		log.Debug().Str("module", "queue").Str("sid", string(sid)).Msg("join without student id ignored")
		return
	}

	q.mu.Lock()
	if q.indexOf(sid) >= 0 || (q.active != nil && q.active.sid == sid) {
		q.mu.Unlock()
		return
	}
	q.waiting = append(q.waiting, &entry{sid: sid, studentID: studentID, joinedAt: q.clk.Now()})
	log.Info().Str("module", "queue").Str("sid", string(sid)).
		Str("student", studentID).Int("waiting", len(q.waiting)).Msg("joined queue")

	notifs := []func(){q.queueChangedLocked()}
	if q.active == nil && !q.grantPending {
		if q.grantDelay <= 0 {
			notifs = append(notifs, q.advanceLocked()...)
		} else {
			q.grantPending = true
			time.AfterFunc(q.grantDelay, q.grantTimerFired)
		}
	}
	q.mu.Unlock()

	for _, n := range notifs {
		n()
	}
}

// Complete signals that the Active holder finished or abandoned its
// window; either way the queue advances. A signal from a connection
// that does not hold the turn is a no-op.
func (q *Queue) Complete(sid hub.SessionID) {
	q.mu.Lock()
	if q.active == nil || q.active.sid != sid {
		q.mu.Unlock()
		return
	}
	log.Info().Str("module", "queue").Str("sid", string(sid)).Msg("turn completed")
	q.active = nil
	q.grantSeq++
	notifs := q.advanceLocked()
	q.mu.Unlock()

	for _, n := range notifs {
		n()
	}
}

// Remove reconciles a disconnect. A Waiting entry is spliced out and the
// remaining positions rebroadcast; the Active holder is treated as a
// completion so the next waiter is granted the turn.
func (q *Queue) Remove(sid hub.SessionID) {
	q.mu.Lock()
	if q.active != nil && q.active.sid == sid {
		log.Info().Str("module", "queue").Str("sid", string(sid)).Msg("active holder disconnected")
		q.active = nil
		q.grantSeq++
		notifs := q.advanceLocked()
		q.mu.Unlock()
		for _, n := range notifs {
			n()
		}
		return
	}

	i := q.indexOf(sid)
	if i < 0 {
		q.mu.Unlock()
		return
	}
	q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
	log.Info().Str("module", "queue").Str("sid", string(sid)).Int("waiting", len(q.waiting)).Msg("left queue")
	notify := q.queueChangedLocked()
	q.mu.Unlock()

	notify()
}

// Len reports the number of Waiting entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// Active reports the current holder, if any.
func (q *Queue) Active() (hub.SessionID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active == nil {
		return "", false
	}
	return q.active.sid, true
}

func (q *Queue) indexOf(sid hub.SessionID) int {
	for i, e := range q.waiting {
		if e.sid == sid {
			return i
		}
	}
	return -1
}

// advanceLocked pops the head into Active and arms the watchdog.
// Caller holds q.mu; returned notifications run after unlock.
func (q *Queue) advanceLocked() []func() {
	if q.active != nil || len(q.waiting) == 0 {
		return nil
	}
	q.active = q.waiting[0]
	q.waiting = q.waiting[1:]
	q.grantSeq++
	log.Info().Str("module", "queue").Str("sid", string(q.active.sid)).
		Str("student", q.active.studentID).Msg("turn granted")

	if q.turnTTL > 0 {
		seq := q.grantSeq
		time.AfterFunc(q.turnTTL, func() { q.evictStale(seq) })
	}

	sid := q.active.sid
	return []func(){
		func() { q.notifier.TurnGranted(sid) },
		q.queueChangedLocked(),
	}
}

// evictStale fires when a grant's TTL expires. The sequence check makes
// it a no-op if the holder already completed or a later grant happened.
func (q *Queue) evictStale(seq uint64) {
	q.mu.Lock()
	if q.active == nil || q.grantSeq != seq {
		q.mu.Unlock()
		return
	}
	log.Warn().Str("module", "queue").Str("sid", string(q.active.sid)).
		Dur("ttl", q.turnTTL).Msg("evicting stale turn holder")
	q.active = nil
	q.grantSeq++
	notifs := q.advanceLocked()
	q.mu.Unlock()

	for _, n := range notifs {
		n()
	}
}

func (q *Queue) grantTimerFired() {
	q.mu.Lock()
	q.grantPending = false
	notifs := q.advanceLocked()
	q.mu.Unlock()

	for _, n := range notifs {
		n()
	}
}

// queueChangedLocked snapshots length and per-entry positions under the
// lock and returns the delivery as a deferred call.
func (q *Queue) queueChangedLocked() func() {
	length := len(q.waiting)
	positions := make([]Position, length)
	for i, e := range q.waiting {
		positions[i] = Position{SID: e.sid, Pos: i + 1}
	}
	return func() { q.notifier.QueueChanged(length, positions) }
}
