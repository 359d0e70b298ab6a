package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pullpipe/observability"
	"github.com/kbukum/pullpipe/version"
)

// Health returns a handler that reports service health including component
// statuses. A component that is down turns the response into a 503.
func Health(serviceName string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep := observability.Check(c.Request.Context(), serviceName, version.Short(), checkers...)

		httpStatus := http.StatusOK
		if rep.Status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     rep.Status,
			"service":    rep.Service,
			"version":    rep.Version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": rep.Components,
		})
	}
}
