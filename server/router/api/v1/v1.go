package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/appointment-assistant/internal/profile"
	"github.com/hrygo/appointment-assistant/plugin/ai/session"
	appmw "github.com/hrygo/appointment-assistant/server/middleware"
)

// APIV1Service exposes the assistant over HTTP.
type APIV1Service struct {
	Profile  *profile.Profile
	Sessions *session.Manager

	limiter *appmw.RateLimiter
}

// NewAPIV1Service creates the HTTP service over a session manager.
func NewAPIV1Service(p *profile.Profile, sessions *session.Manager) *APIV1Service {
	return &APIV1Service{
		Profile:  p,
		Sessions: sessions,
		limiter:  appmw.NewRateLimiter(),
	}
}

// Register mounts the API routes on the given Echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.Use(middleware.CORS())

	api.POST("/chat", s.Chat)
	api.GET("/sessions", s.ListSessions)
	api.GET("/sessions/:id/appointments", s.ListAppointments)
	api.DELETE("/sessions/:id", s.DeleteSession)
	api.GET("/system/metrics", s.GetMetrics)

	e.GET("/healthz", s.Healthz)
}

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}
