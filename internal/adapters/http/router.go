package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"roomqueue/internal/adapters/ws"
	"roomqueue/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags every browser with a stable token; the WS
// layer uses it as the session id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// CORSMiddleware mirrors the permissive policy of the upgrader.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RegisterSlotValidation installs the "timeslot" check on gin's binding
// engine: a start time must be one of the generated "HH:00" labels.
func RegisterSlotValidation(slots []string) {
	allowed := make(map[string]bool, len(slots))
	for _, s := range slots {
		allowed[s] = true
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
			return allowed[fl.Field().String()]
		})
	}
}

func SetupRouter(cfg *config.Config, h *Handler, wsCtl *ws.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("RoomQueueSessions", store))
	r.Use(ClientTokenMiddleware())
	r.Use(CORSMiddleware())

	log.Info().Str("module", "adapters.http").Int("rooms", len(h.Rooms)).Msg("router setup")

	api := r.Group("/api")

	api.POST("/login", h.Login)
	api.GET("/rooms", h.ListRooms)
	api.GET("/bookings", h.ListBookings)
	api.POST("/bookings", h.CreateBooking)
	api.DELETE("/bookings/:id", h.CancelBooking)
	api.GET("/my-bookings", h.MyBookings)
	api.GET("/admin/bookings", h.AdminBookings)
	api.GET("/queue", h.QueueStatus)

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws endpoint hit")
		wsCtl.Handle(c)
	})

	return r
}
