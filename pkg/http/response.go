package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes data as a flat JSON body with status 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// BadRequestResponse writes data as a flat JSON body with status 400.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusBadRequest, data)
}

// InternalServerErrorResponse writes a generic 500 body.
func InternalServerErrorResponse(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, InternalError("Something went wrong"))
}

// AppErrorResponse writes an AppError with its status. Any other error is a 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, appErr)
	}
	return InternalServerErrorResponse(c)
}
