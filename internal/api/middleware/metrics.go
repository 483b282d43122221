package middleware

import (
	"time"

	"github.com/drujensen/datamodels/internal/impl/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics records request counts and latencies by route pattern, so ids in
// paths do not explode the label space.
func Metrics(registry *metrics.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			registry.HTTPRequestsInFlight.Inc()
			defer registry.HTTPRequestsInFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			registry.RecordHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
