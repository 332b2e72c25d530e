// Package httpapi exposes the service layer over gin HTTP routes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/blobstore"
	"rollcall/internal/classroom"
	"rollcall/internal/config"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/notification"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
	"rollcall/internal/stats"
)

// UserDirectory looks up and creates staff accounts.
type UserDirectory interface {
	UserByEmail(ctx context.Context, email string) (*roster.User, error)
	CreateUser(ctx context.Context, u roster.User) (roster.User, error)
	IsEmailAllowed(ctx context.Context, email string) (bool, error)
}

// HealthChecker reports backing-store availability for /healthz.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Server bundles the services behind the HTTP routes.
type Server struct {
	Cfg           config.App
	Users         UserDirectory
	Roster        *roster.Service
	Classes       *classroom.Service
	Attendance    *attendance.Service
	Stats         *stats.Service
	Notifications *notification.Service
	Blobs         blobstore.BlobStore
	Queue         queue.Queue
	RedisHealth   HealthChecker
	DBHealth      HealthChecker
}

// Router builds the gin engine with the full middleware stack and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(s.Cfg.RateLimitPerMin, s.Cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.handleHealthz)

	r.POST("/v1/auth/token", s.handleIssueToken)

	v1 := r.Group("/v1", auth.Bearer(s.Cfg.JWTSigningKey, s.Cfg.JWTIssuer))

	admin := v1.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/users", s.handleCreateUser)

	staff := v1.Group("", auth.RequireRole(auth.RoleTeacher, auth.RoleHOD, auth.RoleAdmin))
	staff.POST("/classes", s.handleCreateClass)
	staff.GET("/classes", s.handleListClasses)
	staff.GET("/classes/:id", s.handleGetClass)
	staff.DELETE("/classes/:id", s.handleDeleteClass)
	staff.POST("/classes/:id/schedules", s.handleAddSchedule)
	staff.GET("/classes/:id/schedules", s.handleListSchedules)
	staff.POST("/classes/:id/reschedules", s.handleCreateReschedule)
	staff.GET("/classes/:id/reschedules", s.handleListReschedules)
	staff.PATCH("/reschedules/:id", s.handleUpdateReschedule)
	staff.DELETE("/reschedules/:id", s.handleDeleteReschedule)

	staff.POST("/classes/:id/roster", s.handleUpsertRoster)
	staff.GET("/classes/:id/roster", s.handleListRoster)
	staff.POST("/classes/:id/sessions", s.handleCreateSession)
	staff.GET("/classes/:id/sessions", s.handleListSessions)
	staff.PUT("/sessions/:id/statuses", s.handleUpsertStatuses)
	staff.GET("/classes/:id/summary", s.handleClassSummary)

	staff.POST("/notifications/student", s.handleNotifyStudent)
	staff.POST("/notifications/threshold", s.handleNotifyThreshold)

	staff.GET("/uploads", s.handleListUploads)
	staff.GET("/uploads/url", s.handleTemporaryURL)

	v1.GET("/leaderboard", auth.RequireRole(auth.RoleStudent, auth.RoleAdmin), s.handleLeaderboard)

	me := v1.Group("/me", auth.RequireRole(auth.RoleStudent))
	me.GET("/classes/:id/stats", s.handleMyClassStats)
	me.GET("/notifications", s.handleMyNotifications)
	me.POST("/notifications/:id/read", s.handleMarkNotificationRead)
	me.POST("/photo", s.handleUploadPhoto)

	return r
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx := c.Request.Context()
	redisHealthy := s.RedisHealth != nil && s.RedisHealth.Healthy(ctx)
	dbHealthy := s.DBHealth != nil && s.DBHealth.Healthy(ctx)
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
