package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/appointment-assistant/internal/errors"
)

// AppointmentResponse is the wire form of one appointment.
type AppointmentResponse struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ListSessions returns summaries of all live sessions.
// GET /api/v1/sessions
func (s *APIV1Service) ListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Sessions.List())
}

// ListAppointments returns the calendar of one session.
// GET /api/v1/sessions/:id/appointments
func (s *APIV1Service) ListAppointments(c echo.Context) error {
	id := c.Param("id")
	sess, ok := s.Sessions.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    apperrors.ErrCodeSessionNotFound,
			Message: apperrors.SessionNotFound(id).Message,
		})
	}

	appointments := sess.Appointments()
	out := make([]AppointmentResponse, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, AppointmentResponse{
			ID:    a.ID,
			Title: a.Title,
			Start: a.Start,
			End:   a.End,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteSession drops a session and its calendar.
// DELETE /api/v1/sessions/:id
func (s *APIV1Service) DeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !s.Sessions.Delete(id) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    apperrors.ErrCodeSessionNotFound,
			Message: apperrors.SessionNotFound(id).Message,
		})
	}
	s.limiter.Forget(id)
	return c.NoContent(http.StatusNoContent)
}
