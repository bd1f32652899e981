package http

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"roomqueue/internal/clock"
	"roomqueue/internal/domain"
	"roomqueue/internal/ledger"
	"roomqueue/internal/queue"
)

// Handler exposes the request/response surface the UI drives the ledger
// and queue through.
type Handler struct {
	Users  *ledger.Users
	Ledger *ledger.Ledger
	Queue  *queue.Queue
	Rooms  []domain.Room
	Clock  clock.Clock
}

func NewHandler(users *ledger.Users, led *ledger.Ledger, q *queue.Queue, rooms []domain.Room, clk clock.Clock) *Handler {
	return &Handler{
		Users:  users,
		Ledger: led,
		Queue:  q,
		Rooms:  rooms,
		Clock:  clk,
	}
}

type loginRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

// Login resolves the trusted identifier and stores it in the session.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, "studentId is required")
		return
	}

	user, err := h.Users.Login(req.StudentID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	s := sessions.Default(c)
	s.Set("studentId", user.StudentID)
	_ = s.Save()

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// ListRooms returns the seeded room set.
func (h *Handler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.Rooms)
}

// ListBookings returns live bookings for a date, defaulting to today.
func (h *Handler) ListBookings(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = clock.Today(h.Clock)
	}
	c.JSON(http.StatusOK, h.Ledger.ListForDate(date))
}

type memberRequest struct {
	Name       string `json:"name" binding:"required"`
	StudentID  string `json:"studentId" binding:"required"`
	Department string `json:"department"`
}

type createBookingRequest struct {
	StudentID string          `json:"studentId" binding:"required"`
	RoomID    int             `json:"roomId" binding:"required"`
	Date      string          `json:"date" binding:"required"`
	StartTime string          `json:"startTime" binding:"required,timeslot"`
	EndTime   string          `json:"endTime"`
	Members   []memberRequest `json:"members" binding:"omitempty,max=3,dive"`
}

// CreateBooking validates the request and hands it to the ledger; the
// end time is derived server-side, the client's value is not trusted.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, domain.ErrValidation.Error())
		return
	}
	if !h.roomExists(req.RoomID) {
		writeError(c, http.StatusBadRequest, codeValidationError, "unknown room")
		return
	}

	members := make([]domain.Member, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, domain.Member{Name: m.Name, StudentID: m.StudentID, Department: m.Department})
	}

	booking, err := h.Ledger.Create(ledger.CreateInput{
		StudentID: req.StudentID,
		RoomID:    req.RoomID,
		Date:      req.Date,
		StartTime: req.StartTime,
		Members:   members,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

type cancelRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

// CancelBooking is the single deletion path, shared with admin
// force-cancel; the ledger decides owner-or-admin.
func (h *Handler) CancelBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, "invalid booking id")
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, "studentId is required")
		return
	}

	requester, ok := h.Users.Get(req.StudentID)
	if !ok {
		// Unknown requester can still be the owner check's subject.
		requester = domain.User{StudentID: req.StudentID}
	}
	if err := h.Ledger.Cancel(bookingID, requester); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MyBookings returns the requester's bookings sorted by date and start.
func (h *Handler) MyBookings(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		writeError(c, http.StatusBadRequest, codeValidationError, "studentId is required")
		return
	}
	c.JSON(http.StatusOK, h.Ledger.ListForUser(studentID))
}

// AdminBookings returns every live booking; admins only.
func (h *Handler) AdminBookings(c *gin.Context) {
	requester, ok := h.Users.Get(c.Query("studentId"))
	if !ok || !requester.IsAdmin {
		writeError(c, http.StatusForbidden, codeForbidden, domain.ErrForbidden.Error())
		return
	}
	c.JSON(http.StatusOK, h.Ledger.ListAll())
}

// QueueStatus lets a freshly connected client resynchronize; the hub
// keeps no replay buffer.
func (h *Handler) QueueStatus(c *gin.Context) {
	_, active := h.Queue.Active()
	c.JSON(http.StatusOK, gin.H{
		"queueLength": h.Queue.Len(),
		"active":      active,
	})
}

func (h *Handler) roomExists(id int) bool {
	for _, r := range h.Rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}
