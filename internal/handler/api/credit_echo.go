package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	"CreditScore/internal/service/metrics"
	"CreditScore/internal/service/ratelimit"
	"CreditScore/internal/usecase"
	xhttp "CreditScore/pkg/http"
	xlogger "CreditScore/pkg/logger"
)

// CreditService is what the HTTP layer needs from the scoring use case.
type CreditService interface {
	Score(ctx context.Context, requestID string, ts time.Time, raw *models.RawApplication) (*models.ScoringResult, error)
	Explain(ctx context.Context, requestID string, raw *models.RawApplication) (*models.ExplanationResult, error)
	ModelInfo() models.ModelInfo
	AuditRecord(ctx context.Context, requestID string) (*models.AuditRecord, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// CreditEchoHandler serves the scoring API.
type CreditEchoHandler struct {
	logger  *xlogger.Logger
	svc     CreditService
	limiter *ratelimit.Limiter
	checks  map[string]HealthCheck
	now     func() time.Time
	newID   func() string
}

// NewCreditEchoHandler creates the handler. A nil limiter disables rate limiting.
func NewCreditEchoHandler(logger *xlogger.Logger, svc CreditService, limiter *ratelimit.Limiter) *CreditEchoHandler {
	metrics.Register()
	return &CreditEchoHandler{
		logger:  logger,
		svc:     svc,
		limiter: limiter,
		checks:  map[string]HealthCheck{},
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// AddHealthCheck registers a dependency probe for /healthz.
func (h *CreditEchoHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *CreditEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict", h.Predict, h.rateLimit("predict"))
	e.POST("/explain", h.Explain, h.rateLimit("explain"))
	e.GET("/model-info", h.ModelInfo)
	e.GET("/audit/:request_id", h.Audit)
	e.GET("/healthz", h.Health)
}

// Predict scores an application: 200 with a ScoringResult or 400 with a flat
// error body carrying the request id.
func (h *CreditEchoHandler) Predict(c echo.Context) error {
	start := time.Now()
	defer observe("predict", start)

	requestID, ts := h.newID(), h.now()
	raw := &models.RawApplication{}
	if aerr := xhttp.DecodeStrict(c, raw); aerr != nil {
		metrics.EndpointErrors.WithLabelValues("predict", "decode").Inc()
		return h.decodeFailure(c, requestID, &ts, aerr)
	}

	res, err := h.svc.Score(c.Request().Context(), requestID, ts, raw)
	if err != nil {
		metrics.EndpointErrors.WithLabelValues("predict", errorKind(err)).Inc()
		return xhttp.BadRequestResponse(c, usecase.NewErrorResponse(requestID, &ts, err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Explain returns the rule-based risk view of an application.
func (h *CreditEchoHandler) Explain(c echo.Context) error {
	start := time.Now()
	defer observe("explain", start)

	requestID := h.newID()
	raw := &models.RawApplication{}
	if aerr := xhttp.DecodeStrict(c, raw); aerr != nil {
		metrics.EndpointErrors.WithLabelValues("explain", "decode").Inc()
		return h.decodeFailure(c, requestID, nil, aerr)
	}

	res, err := h.svc.Explain(c.Request().Context(), requestID, raw)
	if err != nil {
		metrics.EndpointErrors.WithLabelValues("explain", errorKind(err)).Inc()
		return xhttp.BadRequestResponse(c, usecase.NewErrorResponse(requestID, nil, err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *CreditEchoHandler) ModelInfo(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.ModelInfo())
}

// Audit returns the stored trace of a previous score.
func (h *CreditEchoHandler) Audit(c echo.Context) error {
	id := c.Param("request_id")
	rec, err := h.svc.AuditRecord(c.Request().Context(), id)
	switch {
	case err == nil:
		return xhttp.SuccessResponse(c, rec)
	case errors.Is(err, domrepo.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no audit record for request %s", id))
	case errors.Is(err, usecase.ErrAuditUnavailable):
		return xhttp.AppErrorResponse(c, xhttp.NotImplementedError(err.Error()))
	default:
		h.logger.Error("audit lookup error", xlogger.RequestID(id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("audit lookup failed").WithError(err))
	}
}

// Health probes every registered dependency.
func (h *CreditEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "degraded", "checks": failed})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CreditEchoHandler) rateLimit(endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
				metrics.RateLimited.WithLabelValues(endpoint).Inc()
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}

func (h *CreditEchoHandler) decodeFailure(c echo.Context, requestID string, ts *time.Time, aerr *xhttp.AppError) error {
	body := models.ErrorResponse{RequestID: requestID, Timestamp: ts, Error: aerr.Message, Field: aerr.Field}
	status := aerr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	return c.JSON(status, body)
}

func observe(endpoint string, start time.Time) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func errorKind(err error) string {
	var (
		ve *models.ValidationError
		se *models.SchemaError
		ce *models.ClassifierError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &se):
		return "schema"
	case errors.As(err, &ce):
		return "classifier"
	default:
		return "other"
	}
}
