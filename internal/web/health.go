package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 3 * time.Second

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	body := gin.H{"status": "ok"}
	status := http.StatusOK

	backendHealthy := true
	if s.backend != nil {
		if err := s.backend.Health(ctx); err != nil {
			s.log.Warn("backend unhealthy", zap.Error(err))
			backendHealthy = false
		}
	}
	body["backend"] = backendHealthy
	if !backendHealthy {
		status = http.StatusServiceUnavailable
	}

	if s.redis != nil {
		redisHealthy := s.redis.Healthy(ctx)
		body["redis"] = redisHealthy
		if !redisHealthy {
			status = http.StatusServiceUnavailable
		}
	}

	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
