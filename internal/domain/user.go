// Package domain contains entity without logic, just meta-data
package domain

const StudentIDLen = 10

// User is created lazily on first login and never deleted.
type User struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	IsAdmin   bool   `json:"isAdmin"`
	// TotalHours is reported on login but never incremented by booking
	// creation; the enforcement path is the per-day quota, not this sum.
	TotalHours int `json:"totalBookingHours"`
}
