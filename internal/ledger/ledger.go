// Package ledger owns every reservation record. All mutations run inside
// one critical section per structure; change events are published only
// after the lock is released.
package ledger

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"roomqueue/internal/clock"
	"roomqueue/internal/domain"
)

// Publisher receives change events after a successful mutation.
type Publisher interface {
	BookingCreated(domain.Booking)
	BookingCancelled(bookingID int64)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) BookingCreated(domain.Booking) {}
func (NopPublisher) BookingCancelled(int64)        {}

type Ledger struct {
	mu       sync.RWMutex
	bookings map[int64]domain.Booking
	nextID   int64

	clk   clock.Clock
	pub   Publisher
	slots map[string]bool
}

type Option func(*Ledger)

// WithSlots restricts start times to the given "HH:00" labels; without
// it any on-the-hour start is accepted.
func WithSlots(slots []string) Option {
	return func(l *Ledger) {
		l.slots = make(map[string]bool, len(slots))
		for _, s := range slots {
			l.slots[s] = true
		}
	}
}

func New(clk clock.Clock, pub Publisher, opts ...Option) *Ledger {
	if pub == nil {
		pub = NopPublisher{}
	}
	l := &Ledger{
		bookings: make(map[int64]domain.Booking),
		nextID:   1,
		clk:      clk,
		pub:      pub,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type CreateInput struct {
	StudentID string
	RoomID    int
	Date      string
	StartTime string
	Members   []domain.Member
}

// Create runs the whole check-then-commit sequence under the write lock:
// two concurrent attempts for the same slot can never both succeed.
func (l *Ledger) Create(in CreateInput) (domain.Booking, error) {
	if in.StudentID == "" || in.RoomID <= 0 || in.Date == "" || in.StartTime == "" {
		return domain.Booking{}, domain.ErrValidation
	}
	if len(in.Members) > domain.MaxMembers {
		return domain.Booking{}, domain.ErrValidation
	}
	end, ok := clock.NextSlot(in.StartTime)
	if !ok {
		return domain.Booking{}, domain.ErrValidation
	}
	if l.slots != nil && !l.slots[in.StartTime] {
		return domain.Booking{}, domain.ErrValidation
	}

	l.mu.Lock()
	if in.Date != clock.Today(l.clk) {
		l.mu.Unlock()
		return domain.Booking{}, domain.ErrDateRestriction
	}
	for _, b := range l.bookings {
		if b.RoomID == in.RoomID && b.Date == in.Date && b.StartTime == in.StartTime {
			l.mu.Unlock()
			return domain.Booking{}, domain.ErrSlotConflict
		}
	}
	owned := 0
	for _, b := range l.bookings {
		if b.StudentID == in.StudentID && b.Date == in.Date {
			owned++
		}
	}
	if owned+1 > domain.MaxDailyBookings {
		l.mu.Unlock()
		return domain.Booking{}, domain.ErrQuotaExceeded
	}

	booking := domain.Booking{
		ID:        l.nextID,
		StudentID: in.StudentID,
		RoomID:    in.RoomID,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   end,
		Members:   append([]domain.Member(nil), in.Members...),
		CreatedAt: l.clk.Now(),
	}
	l.nextID++
	l.bookings[booking.ID] = booking
	l.mu.Unlock()

	log.Info().Str("module", "ledger").Int64("booking", booking.ID).
		Str("student", booking.StudentID).Int("room", booking.RoomID).
		Str("slot", booking.StartTime).Msg("booking created")
	l.pub.BookingCreated(booking)
	return booking, nil
}

// Cancel is the single deletion path, shared by owners and admins.
func (l *Ledger) Cancel(bookingID int64, requester domain.User) error {
	l.mu.Lock()
	booking, ok := l.bookings[bookingID]
	if !ok {
		l.mu.Unlock()
		return domain.ErrNotFound
	}
	if booking.StudentID != requester.StudentID && !requester.IsAdmin {
		l.mu.Unlock()
		return domain.ErrForbidden
	}
	delete(l.bookings, bookingID)
	l.mu.Unlock()

	log.Info().Str("module", "ledger").Int64("booking", bookingID).
		Str("requester", requester.StudentID).Msg("booking cancelled")
	l.pub.BookingCancelled(bookingID)
	return nil
}

// ListForDate returns all live bookings for the given day.
func (l *Ledger) ListForDate(date string) []domain.Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Booking, 0)
	for _, b := range l.bookings {
		if b.Date == date {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out
}

// ListForUser returns the user's live bookings sorted by date, then start.
func (l *Ledger) ListForUser(studentID string) []domain.Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Booking, 0)
	for _, b := range l.bookings {
		if b.StudentID == studentID {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out
}

// ListAll returns every live booking; the admin check is the caller's.
func (l *Ledger) ListAll() []domain.Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Booking, 0, len(l.bookings))
	for _, b := range l.bookings {
		out = append(out, b)
	}
	sortBookings(out)
	return out
}

func sortBookings(bs []domain.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Date != bs[j].Date {
			return bs[i].Date < bs[j].Date
		}
		if bs[i].StartTime != bs[j].StartTime {
			return bs[i].StartTime < bs[j].StartTime
		}
		return bs[i].ID < bs[j].ID
	})
}
