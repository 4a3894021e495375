package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	applogger "CreditScore/pkg/logger"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
	size     *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	collectors  *httpMetrics
)

func registerHTTPMetrics() *httpMetrics {
	metricsOnce.Do(func() {
		collectors = &httpMetrics{
			requests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_http_requests_total",
				Help: "HTTP requests by route, method and status code.",
			}, []string{"route", "method", "status"}),
			latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "credit_http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: []float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
			}, []string{"route", "method"}),
			inFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "credit_http_in_flight_requests",
				Help: "Requests currently being served.",
			}),
			size: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "credit_http_response_size_bytes",
				Help:    "HTTP response body size.",
				Buckets: prometheus.ExponentialBuckets(64, 4, 6),
			}, []string{"route"}),
		}
	})
	return collectors
}

// Metrics records request metrics labelled by route template and warns about
// requests slower than slowThreshold. Zero disables the warning.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	m := registerHTTPMetrics()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			took := time.Since(start)
			route, method := routeLabel(c), c.Request().Method
			status := c.Response().Status

			m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			m.latency.WithLabelValues(route, method).Observe(took.Seconds())
			m.size.WithLabelValues(route).Observe(float64(c.Response().Size))

			if slowThreshold > 0 && took >= slowThreshold && l != nil {
				l.Warn("HTTP request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", status),
					applogger.Duration("took", took),
				)
			}
			return nil
		}
	}
}

// routeLabel is the matched route template, so raw ids never become labels.
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}
