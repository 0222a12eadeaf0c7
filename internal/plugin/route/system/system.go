package system

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	registryroute "github.com/chirino/gina-service/internal/registry/route"
)

var (
	ready atomic.Bool
	check atomic.Pointer[func(context.Context) error]
)

// MarkReady signals that the service has finished initializing and is ready to
// serve traffic. Call this once StartServer has completed successfully.
func MarkReady() {
	ready.Store(true)
}

// SetReadinessCheck installs a probe that /ready runs after MarkReady, such
// as a store ping. Passing nil removes it.
func SetReadinessCheck(fn func(context.Context) error) {
	if fn == nil {
		check.Store(nil)
		return
	}
	check.Store(&fn)
}

func init() {
	registryroute.Register(registryroute.Plugin{
		Name:  "system-management",
		Order: 0,
		Type:  registryroute.RouteTypeManagement,
		Loader: func(r *gin.Engine) error {
			// Liveness: process is up
			r.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			// Readiness: service has finished initializing and its store answers
			r.GET("/ready", readiness)

			// Prometheus metrics
			r.GET("/metrics", gin.WrapH(promhttp.Handler()))

			return nil
		},
	})

	registryroute.Register(registryroute.Plugin{
		Name:  "system-main",
		Order: 0,
		Type:  registryroute.RouteTypeMain,
		Loader: func(r *gin.Engine) error {
			r.GET("/", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "GinaAI Backend Server is running!"})
			})
			return nil
		},
	})
}

func readiness(c *gin.Context) {
	if !ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	if fn := check.Load(); fn != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := (*fn)(ctx); err != nil {
			log.Warn("Readiness check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
