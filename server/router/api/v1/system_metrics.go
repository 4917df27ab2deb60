package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/appointment-assistant/internal/observability"
)

// GetMetrics returns the turn counters.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	snapshot := observability.GlobalMetrics().Snapshot()
	return c.JSON(http.StatusOK, snapshot)
}
