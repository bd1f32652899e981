package domain

import "time"

const (
	// MaxDailyBookings caps live bookings per user per calendar day.
	MaxDailyBookings = 4
	// MaxMembers caps extra party members; the owner is not counted.
	MaxMembers = 3
	// SlotDuration is the fixed length of every bookable slot.
	SlotDuration = time.Hour
)

// Member describes one extra person on a booking.
type Member struct {
	Name       string `json:"name"`
	StudentID  string `json:"studentId"`
	Department string `json:"department,omitempty"`
}

// Booking is immutable after creation; cancellation removes the record.
// IDs are process-lifetime unique and never reused.
type Booking struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"studentId"`
	RoomID    int       `json:"roomId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}
