package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drujensen/datamodels/internal/impl/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics(t *testing.T) {
	registry := metrics.NewRegistry()
	e := echo.New()
	e.Use(Metrics(registry))
	e.GET("/api/model", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/model", nil))
	}
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(registry.HTTPRequestsTotal.WithLabelValues("GET", "/api/model", "204")))
	assert.Equal(t, float64(0), testutil.ToFloat64(registry.HTTPRequestsInFlight))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(Logger(zap.New(core)))
	e.GET("/api/model/tree", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/model/tree", nil))

	entries := logs.FilterMessage("Request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/api/model/tree", fields["route"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
		assert.NotEmpty(t, fields["request_id"])
	}
}
