package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/linkmarket/backend/internal/infrastructure/telemetry"
)

// Profiling tags the goroutine serving each request with method, route and
// handler labels so CPU profiles can be filtered per endpoint. Requests to
// unmatched routes, health checks and metrics scrapes are left untagged.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || route == "/health" || route == "/metrics" {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.ProfilingLabelMethod:  c.Request.Method,
			telemetry.ProfilingLabelRoute:   route,
			telemetry.ProfilingLabelHandler: shortHandlerName(c.HandlerName()),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// shortHandlerName trims the package path from a gin handler name:
// ".../handler.(*CartHandler).AddItem-fm" becomes "CartHandler.AddItem"
func shortHandlerName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	return strings.NewReplacer("(*", "", ")", "").Replace(name)
}
