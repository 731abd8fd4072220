package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/elms-backend/internal/config"
	"github.com/stemsi/elms-backend/internal/handler"
	"github.com/stemsi/elms-backend/internal/middleware"
	"github.com/stemsi/elms-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Timetable  *handler.TimetableHandler
	Logistics  *handler.LogisticsHandler
	BulkImport *handler.BulkImportHandler
	Venue      *handler.VenueHandler
	Monitor    *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Exam-day endpoints take the hall-door burst: a generous bucket keeps a
	// misbehaving client from starving the check-in desks on the same NAT.
	examDayLimiter := middleware.NewRateLimiter(120, 300, time.Minute)

	// ─── 1. Timetable Editing ──────────────────────────────────────────
	timetables := router.Group("/api/v1/timetables")
	{
		timetables.POST("", handlers.Timetable.CreateTimetable)
		timetables.GET("", handlers.Timetable.ListTimetables)
		timetables.GET("/:timetable_id/sessions", handlers.Timetable.ListSessions)
		timetables.POST("/:timetable_id/sessions", handlers.Timetable.CreateSession)
		timetables.POST("/:timetable_id/sessions/validate", handlers.Timetable.ValidateSession)

		// Bulk import
		timetables.POST("/:timetable_id/import/validate", handlers.BulkImport.ValidateBatch)
		timetables.POST("/:timetable_id/import/commit", handlers.BulkImport.CommitBatch)
	}

	// ─── 2. Sessions: Editing + Exam Day ───────────────────────────────
	sessions := router.Group("/api/v1/sessions")
	{
		sessions.GET("/:session_id", handlers.Timetable.GetSession)
		sessions.PUT("/:session_id", handlers.Timetable.UpdateSession)
		sessions.DELETE("/:session_id", handlers.Timetable.DeleteSession)
		sessions.POST("/:session_id/cancel", handlers.Timetable.CancelSession)

		sessions.POST("/:session_id/start", handlers.Logistics.StartSession)
		sessions.POST("/:session_id/complete", handlers.Logistics.CompleteSession)

		sessions.POST("/:session_id/registrations", handlers.Logistics.RegisterStudents)
		sessions.GET("/:session_id/registrations", handlers.Logistics.ListRegistrations)

		sessions.POST("/:session_id/check-in", examDayLimiter.Middleware(), handlers.Logistics.CheckIn)
		sessions.POST("/:session_id/submit-script", examDayLimiter.Middleware(), handlers.Logistics.SubmitScript)

		sessions.POST("/:session_id/invigilators", handlers.Logistics.AssignInvigilator)
		sessions.DELETE("/:session_id/invigilators/:invigilator_id", handlers.Logistics.UnassignInvigilator)

		sessions.POST("/:session_id/incidents", handlers.Logistics.ReportIncident)
		sessions.GET("/:session_id/incidents", handlers.Logistics.ListIncidents)

		sessions.GET("/:session_id/monitor", handlers.Monitor.GetSnapshot)
	}

	// ─── 3. Venues ─────────────────────────────────────────────────────
	venues := router.Group("/api/v1/venues")
	{
		venues.POST("", handlers.Venue.CreateVenue)
		venues.GET("", handlers.Venue.ListVenues)
		venues.GET("/:venue_id", handlers.Venue.GetVenue)
		venues.POST("/:venue_id/rooms", handlers.Venue.CreateRoom)
		venues.GET("/:venue_id/rooms", handlers.Venue.ListRooms)
	}

	// ─── 4. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:session_id/monitor", handlers.Monitor.MonitorStream)
	}

	return router
}
