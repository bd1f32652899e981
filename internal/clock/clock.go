package clock

import (
	"fmt"
	"time"
)

// Clock allows injecting time into the ledger and queue.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always returns the same instant (useful for tests).
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

const dateLayout = "2006-01-02"

// Today returns the current calendar day in ISO form.
func Today(c Clock) string {
	return c.Now().Format(dateLayout)
}

// TimeSlots generates the hourly "HH:00" start times from openHour up to
// but not including closeHour.
func TimeSlots(openHour, closeHour int) []string {
	slots := make([]string, 0, closeHour-openHour)
	for h := openHour; h < closeHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

// NextSlot returns the "HH:00" label one hour after start. The second
// return is false if start is not an "HH:00" label.
func NextSlot(start string) (string, bool) {
	t, err := time.Parse("15:04", start)
	if err != nil || t.Minute() != 0 {
		return "", false
	}
	return t.Add(time.Hour).Format("15:04"), true
}
