package ledger

import (
	"sync"

	"github.com/rs/zerolog/log"

	"roomqueue/internal/domain"
)

// Users is the lazy user registry: a profile is created on first login
// and never deleted.
type Users struct {
	mu     sync.RWMutex
	byID   map[string]*domain.User
	admins map[string]bool
}

func NewUsers(adminIDs []string) *Users {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Users{
		byID:   make(map[string]*domain.User),
		admins: admins,
	}
}

// Login resolves the trusted identifier to a profile, creating it on
// first sight. Configured admin ids bypass the fixed-length check.
func (u *Users) Login(studentID string) (domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if user, ok := u.byID[studentID]; ok {
		return *user, nil
	}
	if u.admins[studentID] {
		user := &domain.User{StudentID: studentID, Name: "Administrator", IsAdmin: true}
		u.byID[studentID] = user
		log.Info().Str("module", "ledger.users").Str("student", studentID).Msg("admin logged in")
		return *user, nil
	}
	if len(studentID) != domain.StudentIDLen {
		return domain.User{}, domain.ErrInvalidStudentID
	}
	user := &domain.User{
		StudentID: studentID,
		Name:      "student-" + studentID[len(studentID)-4:],
	}
	u.byID[studentID] = user
	log.Info().Str("module", "ledger.users").Str("student", studentID).Msg("created new user")
	return *user, nil
}

// Get returns the profile for a previously seen identifier.
func (u *Users) Get(studentID string) (domain.User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if user, ok := u.byID[studentID]; ok {
		return *user, true
	}
	return domain.User{}, false
}
