package domain

import "errors"

var (
	ErrValidation       = errors.New("missing or invalid booking fields")
	ErrDateRestriction  = errors.New("only same-day bookings are allowed")
	ErrSlotConflict     = errors.New("time slot is already booked")
	ErrQuotaExceeded    = errors.New("daily booking limit reached")
	ErrNotFound         = errors.New("booking not found")
	ErrForbidden        = errors.New("not allowed")
	ErrInvalidStudentID = errors.New("student id must be 10 characters")
)
