package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"roomqueue/internal/adapters/ws"
	"roomqueue/internal/clock"
	"roomqueue/internal/config"
	"roomqueue/internal/domain"
	"roomqueue/internal/hub"
	"roomqueue/internal/ledger"
	"roomqueue/internal/queue"
)

const testToday = "2025-03-10"

func newTestRouter(t *testing.T) (*gin.Engine, *ledger.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:      "release",
		Secret:    "test-secret",
		OpenHour:  9,
		CloseHour: 22,
		AdminIDs:  []string{"admin00000"},
	}
	clk := clock.NewFixed(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	h := hub.New()
	users := ledger.NewUsers(cfg.AdminIDs)
	led := ledger.New(clk, nil)
	q := queue.New(0, 0, ws.NewNotifier(h), clk)

	rooms := []domain.Room{
		{ID: 1, Name: "Study Room 1", Capacity: 4},
		{ID: 2, Name: "Study Room 2", Capacity: 4},
	}
	handler := NewHandler(users, led, q, rooms, clk)
	RegisterSlotValidation(clock.TimeSlots(cfg.OpenHour, cfg.CloseHour))

	wsCtl := ws.NewController(h, q, 4096, time.Minute)
	return SetupRouter(cfg, handler, wsCtl), led
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("creates user on first login", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/login", `{"studentId":"2021001234"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		user := body["user"].(map[string]any)
		if user["name"] != "student-1234" {
			t.Fatalf("expected derived name, got %v", user["name"])
		}
		if user["isAdmin"] != false {
			t.Fatalf("expected non-admin")
		}
	})

	t.Run("admin login", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/login", `{"studentId":"admin00000"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		user := decodeBody(t, w)["user"].(map[string]any)
		if user["isAdmin"] != true {
			t.Fatalf("expected admin flag")
		}
	})

	t.Run("rejects wrong-length id", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/login", `{"studentId":"123"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if decodeBody(t, w)["code"] != codeInvalidStudentID {
			t.Fatalf("expected %s, got %s", codeInvalidStudentID, w.Body.String())
		}
	})

	t.Run("rejects missing id", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/login", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestRoomsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/rooms", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rooms []domain.Room
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Name != "Study Room 1" {
		t.Fatalf("unexpected rooms: %v", rooms)
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	createBody := func(studentID, start string, roomID int) string {
		return fmt.Sprintf(`{"studentId":%q,"roomId":%d,"date":%q,"startTime":%q}`,
			studentID, roomID, testToday, start)
	}

	t.Run("creates and derives end time", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/bookings", createBody("2021001234", "14:00", 1))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		booking := decodeBody(t, w)["booking"].(map[string]any)
		if booking["endTime"] != "15:00" {
			t.Fatalf("expected derived end time 15:00, got %v", booking["endTime"])
		}
	})

	t.Run("conflict on the same slot", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/bookings", createBody("2021005678", "14:00", 1))
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
		}
		if decodeBody(t, w)["code"] != codeSlotConflict {
			t.Fatalf("expected %s, got %s", codeSlotConflict, w.Body.String())
		}
	})

	t.Run("rejects off-grid start time", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/bookings", createBody("2021001234", "14:30", 2))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects unknown room", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/bookings", createBody("2021001234", "15:00", 99))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects non-today date", func(t *testing.T) {
		body := `{"studentId":"2021001234","roomId":1,"date":"2025-03-11","startTime":"16:00"}`
		w := doJSON(t, r, http.MethodPost, "/api/bookings", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
		if decodeBody(t, w)["code"] != codeDateRestriction {
			t.Fatalf("expected %s, got %s", codeDateRestriction, w.Body.String())
		}
	})

	t.Run("rejects four members", func(t *testing.T) {
		members := `[{"name":"a","studentId":"2021000002"},{"name":"b","studentId":"2021000003"},` +
			`{"name":"c","studentId":"2021000004"},{"name":"d","studentId":"2021000005"}]`
		body := fmt.Sprintf(`{"studentId":"2021001234","roomId":2,"date":%q,"startTime":"17:00","members":%s}`,
			testToday, members)
		w := doJSON(t, r, http.MethodPost, "/api/bookings", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestCancelBookingEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	// seed: owner logs in and books
	doJSON(t, r, http.MethodPost, "/api/login", `{"studentId":"2021001234"}`)
	doJSON(t, r, http.MethodPost, "/api/login", `{"studentId":"2021009999"}`)
	w := doJSON(t, r, http.MethodPost, "/api/bookings",
		fmt.Sprintf(`{"studentId":"2021001234","roomId":1,"date":%q,"startTime":"10:00"}`, testToday))
	if w.Code != http.StatusOK {
		t.Fatalf("seed booking failed: %s", w.Body.String())
	}
	id := int64(decodeBody(t, w)["booking"].(map[string]any)["id"].(float64))

	t.Run("stranger is forbidden", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", id), `{"studentId":"2021009999"}`)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("owner can cancel", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", id), `{"studentId":"2021001234"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("second cancel is not found", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", id), `{"studentId":"2021001234"}`)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("admin force-cancel", func(t *testing.T) {
		doJSON(t, r, http.MethodPost, "/api/login", `{"studentId":"admin00000"}`)
		w := doJSON(t, r, http.MethodPost, "/api/bookings",
			fmt.Sprintf(`{"studentId":"2021001234","roomId":1,"date":%q,"startTime":"11:00"}`, testToday))
		id := int64(decodeBody(t, w)["booking"].(map[string]any)["id"].(float64))

		w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", id), `{"studentId":"admin00000"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/bookings/nope", `{"studentId":"2021001234"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestListingEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/login", `{"studentId":"admin00000"}`)
	doJSON(t, r, http.MethodPost, "/api/login", `{"studentId":"2021001234"}`)
	doJSON(t, r, http.MethodPost, "/api/bookings",
		fmt.Sprintf(`{"studentId":"2021001234","roomId":1,"date":%q,"startTime":"13:00"}`, testToday))

	t.Run("bookings default to today", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/bookings", "")
		var bookings []domain.Booking
		if err := json.Unmarshal(w.Body.Bytes(), &bookings); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if len(bookings) != 1 {
			t.Fatalf("expected 1 booking, got %d", len(bookings))
		}
	})

	t.Run("my bookings requires studentId", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/my-bookings", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("my bookings", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/my-bookings?studentId=2021001234", "")
		var bookings []domain.Booking
		if err := json.Unmarshal(w.Body.Bytes(), &bookings); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if len(bookings) != 1 || bookings[0].StudentID != "2021001234" {
			t.Fatalf("unexpected bookings: %v", bookings)
		}
	})

	t.Run("admin view forbidden for regular user", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/admin/bookings?studentId=2021001234", "")
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("admin view", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/admin/bookings?studentId=admin00000", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("queue status", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/queue", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if body["queueLength"] != float64(0) || body["active"] != false {
			t.Fatalf("unexpected status: %v", body)
		}
	})
}
