package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"

	applogger "CreditScore/pkg/logger"
)

// Recover turns a handler panic into a 500 ERR_INTERNAL body and logs the
// stack through l instead of echo's stderr printer.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return emw.RecoverWithConfig(emw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			l.Error("Panic recovered",
				applogger.String("route", routeLabel(c)),
				applogger.Error(err),
				applogger.String("stack", string(stack)),
			)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"code":    "ERR_INTERNAL",
				"message": "Internal Server Error",
			})
		},
	})
}
