package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/monitoring"
)

func (s *Server) handleHealth(c *gin.Context) {
	resp := s.deps.Health.Check(c.Request.Context())

	status := http.StatusOK
	if resp.Status == monitoring.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
