package domain

// Room is seeded at startup and immutable afterwards.
// Capacity is informational; occupancy is not enforced against it.
type Room struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}
