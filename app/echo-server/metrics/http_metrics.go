package metrics

import (
	"strconv"
	"time"

	pkgmetrics "captionSelector/pkg/metrics"

	"github.com/labstack/echo/v4"
)

// Middleware records latency and count per route pattern, so path
// parameters such as creator ids never become label values.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler write the status before we read it
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			pkgmetrics.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
			pkgmetrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
			return nil
		}
	}
}
