package api

import (
	"context"
	"net/http"
	"time"

	"nftmint_rewards/internal/monitoring"
	"nftmint_rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by the repository and the redis client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewHealthRoutes(engine *gin.Engine, checks map[string]Pinger) {
	engine.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				logger.Logger().Error("health check failed", zap.String("check", name), zap.Error(err))
				result[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = "ok"
		}

		c.JSON(status, gin.H{"success": status == http.StatusOK, "checks": result})
	})

	engine.GET("/metrics", monitoring.GinHandler())
}
