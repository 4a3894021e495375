package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that knows its HTTP status. Code and Message are what
// the client sees; Err stays server side.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// OnField names the request field the error is about.
func (e *AppError) OnField(field string) *AppError {
	e.Field = field
	return e
}

var statusCodes = map[int]string{
	http.StatusBadRequest:          "ERR_BAD_REQUEST",
	http.StatusNotFound:            "ERR_NOT_FOUND",
	http.StatusTooManyRequests:     "ERR_RATE_LIMITED",
	http.StatusInternalServerError: "ERR_INTERNAL",
	http.StatusNotImplemented:      "ERR_NOT_IMPLEMENTED",
}

func statusError(status int, message string) *AppError {
	return NewAppError(statusCodes[status], "", message, status)
}

func NotFoundError(message string) *AppError { return statusError(http.StatusNotFound, message) }

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NotFoundError(fmt.Sprintf(format, a...))
}

func BadRequestError(message string) *AppError { return statusError(http.StatusBadRequest, message) }

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return BadRequestError(fmt.Sprintf(format, a...))
}

func TooManyRequestsError(message string) *AppError {
	return statusError(http.StatusTooManyRequests, message)
}

func NotImplementedError(message string) *AppError {
	return statusError(http.StatusNotImplemented, message)
}

func InternalError(message string) *AppError {
	return statusError(http.StatusInternalServerError, message)
}
