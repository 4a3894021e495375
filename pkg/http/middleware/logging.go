package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "CreditScore/pkg/logger"
)

// RequestLogging logs one line per request. 5xx responses are logged as errors.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeLabel(c)),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("latency", time.Since(start)),
			}
			if res.Status >= 500 {
				l.Error("HTTP request failed", fields...)
			} else {
				l.Debug("HTTP request", fields...)
			}
			return nil
		}
	}
}
