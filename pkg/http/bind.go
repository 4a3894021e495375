package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

// DecodeStrict decodes a single JSON object from the request body into dst.
// Unknown fields, trailing data and type mismatches are 400 AppErrors; the
// offending field is reported when it is known.
func DecodeStrict(c echo.Context, dst interface{}) *AppError {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return BadRequestError("request body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) *AppError {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *echo.HTTPError
	)
	switch {
	case errors.Is(err, io.EOF):
		return BadRequestError("request body is empty").WithError(err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return BadRequestError("request body is truncated JSON").WithError(err)
	case errors.As(err, &syntaxErr):
		return BadRequestErrorf("malformed JSON at offset %d", syntaxErr.Offset).WithError(err)
	case errors.As(err, &typeErr):
		return BadRequestErrorf("%s must be %s", typeErr.Field, typeErr.Type).OnField(typeErr.Field).WithError(err)
	case errors.As(err, &maxErr):
		return NewAppError("ERR_BODY_TOO_LARGE", "", fmt.Sprint(maxErr.Message), maxErr.Code).WithError(err)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return BadRequestErrorf("unknown field %q", field).OnField(field).WithError(err)
	default:
		return BadRequestError(err.Error()).WithError(err)
	}
}
