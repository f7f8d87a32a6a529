package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"hotelops/internal/infra/config"
	"hotelops/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Search(c *gin.Context)
}

type ReservationHTTP interface {
	Admit(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Amend(c *gin.Context)
	Delete(c *gin.Context)
}

type RoomHTTP interface {
	Calendar(c *gin.Context)
	UpdateStatus(c *gin.Context)
}

type DashboardHTTP interface {
	Stats(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Reservation  ReservationHTTP
	Room         RoomHTTP
	Dashboard    DashboardHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// NewRouter builds the engine without binding an address so tests can drive it
// through httptest.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", idempotencyHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", obs.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Availability != nil {
		api.GET("/availability", h.Availability.Search)
	}
	if h.Reservation != nil {
		group := api.Group("/reservations")
		group.POST("", h.Reservation.Admit)
		group.GET("", h.Reservation.List)
		group.GET("/:id", h.Reservation.Get)
		group.PATCH("/:id", h.Reservation.Amend)
		group.DELETE("/:id", h.Reservation.Delete)
	}
	if h.Room != nil {
		api.GET("/rooms/:id/calendar", h.Room.Calendar)
		api.PATCH("/rooms/:id/status", h.Room.UpdateStatus)
	}
	if h.Dashboard != nil {
		api.GET("/dashboard", h.Dashboard.Stats)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
