package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	"CreditScore/internal/service/ratelimit"
	"CreditScore/internal/usecase"
	xlogger "CreditScore/pkg/logger"
)

type stubService struct {
	scoreErr   error
	explainErr error
	gotRaw     *models.RawApplication
	audit      map[string]*models.AuditRecord
	auditErr   error
}

func (s *stubService) Score(_ context.Context, id string, ts time.Time, raw *models.RawApplication) (*models.ScoringResult, error) {
	s.gotRaw = raw
	if s.scoreErr != nil {
		return nil, s.scoreErr
	}
	return &models.ScoringResult{RequestID: id, Timestamp: ts, Prediction: 0, ProbabilityBad: 0.2, Score: 740, RiskLevel: models.RiskGood}, nil
}

func (s *stubService) Explain(_ context.Context, id string, raw *models.RawApplication) (*models.ExplanationResult, error) {
	s.gotRaw = raw
	if s.explainErr != nil {
		return nil, s.explainErr
	}
	return &models.ExplanationResult{RequestID: id, TopRiskFactors: []string{"Low savings"}, RiskLevel: models.RiskMedium, ExplanationMethod: "Rule-based risk factor analysis"}, nil
}

func (s *stubService) ModelInfo() models.ModelInfo {
	return models.ModelInfo{ModelType: "Random Forest", RecallBad: 0.82}
}

func (s *stubService) AuditRecord(_ context.Context, id string) (*models.AuditRecord, error) {
	if s.auditErr != nil {
		return nil, s.auditErr
	}
	if r, ok := s.audit[id]; ok {
		return r, nil
	}
	return nil, domrepo.ErrNotFound
}

var fixedTS = time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

func newTestServer(svc CreditService, limiter *ratelimit.Limiter) (*echo.Echo, *CreditEchoHandler) {
	h := NewCreditEchoHandler(xlogger.Nop(), svc, limiter)
	h.now = func() time.Time { return fixedTS }
	h.newID = func() string { return "req-1" }
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const application = `{"checking_status":"no_account","duration":24,"credit_history":"existing_paid_back",
 "purpose":"car_new","credit_amount":5000,"savings":0,"employment":"4","installment_rate":2,
 "personal_status":"male_single","other_debtors":"none","residence_since":3,"property":"real_estate",
 "age":30,"other_installment":"none","housing":"own","existing_credits":1,"job":"skilled_employee",
 "people_liable":1,"telephone":"yes_registered","foreign_worker":"no"}`

func TestPredict(t *testing.T) {
	svc := &stubService{}
	e, _ := newTestServer(svc, nil)

	rec := do(e, http.MethodPost, "/predict", application)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"request_id":"req-1","timestamp":"2024-02-03T04:05:06Z","prediction":0,
		"probability_bad":0.2,"score":740,"risk_level":"Good"}`, rec.Body.String())
	assert.Equal(t, models.Label("0"), svc.gotRaw.Savings)
	assert.Equal(t, 24, svc.gotRaw.Duration)
}

func TestPredictFailures(t *testing.T) {
	tests := map[string]struct {
		body  string
		err   error
		field string
		msg   string
	}{
		"unknown field": {body: `{"duration":24,"colour":"red"}`, field: "colour", msg: "unknown field"},
		"malformed":     {body: `{"duration":`, msg: "JSON"},
		"wrong type":    {body: `{"duration":"long"}`, field: "duration", msg: "duration"},
		"validation": {
			body:  application,
			err:   &models.ValidationError{Field: "duration", Constraint: "loanterm=4", Message: "Duration too short (min 4 months)"},
			field: "duration",
			msg:   "Duration too short (min 4 months)",
		},
		"classifier": {
			body: application,
			err:  &models.ClassifierError{RequestID: "req-1", Err: errors.New("connection refused")},
			msg:  "connection refused",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e, _ := newTestServer(&stubService{scoreErr: tt.err}, nil)
			rec := do(e, http.MethodPost, "/predict", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "req-1", body.RequestID)
			require.NotNil(t, body.Timestamp)
			assert.True(t, fixedTS.Equal(*body.Timestamp))
			assert.Equal(t, tt.field, body.Field)
			assert.Contains(t, body.Error, tt.msg)
		})
	}
}

func TestExplain(t *testing.T) {
	e, _ := newTestServer(&stubService{}, nil)
	rec := do(e, http.MethodPost, "/explain", application)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"request_id":"req-1","top_risk_factors":["Low savings"],"risk_level":"Medium",
		"explanation_method":"Rule-based risk factor analysis"}`, rec.Body.String())

	e, _ = newTestServer(&stubService{explainErr: &models.ValidationError{Field: "age", Message: "age must be greater than 18"}}, nil)
	rec = do(e, http.MethodPost, "/explain", application)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"request_id":"req-1","error":"age must be greater than 18","field":"age"}`, rec.Body.String())
}

func TestModelInfo(t *testing.T) {
	e, _ := newTestServer(&stubService{}, nil)
	rec := do(e, http.MethodGet, "/model-info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"model_type":"Random Forest"`)
	assert.Contains(t, rec.Body.String(), `"recall_bad":0.82`)
}

func TestAudit(t *testing.T) {
	svc := &stubService{audit: map[string]*models.AuditRecord{"abc": {RequestID: "abc", Score: 700}}}
	e, _ := newTestServer(svc, nil)

	rec := do(e, http.MethodGet, "/audit/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score":700`)

	rec = do(e, http.MethodGet, "/audit/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.auditErr = usecase.ErrAuditUnavailable
	rec = do(e, http.MethodGet, "/audit/abc", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	svc.auditErr = errors.New("clickhouse down")
	rec = do(e, http.MethodGet, "/audit/abc", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimit(t *testing.T) {
	e, _ := newTestServer(&stubService{}, ratelimit.New(1, 0.001))

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/predict", application).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodPost, "/predict", application).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/model-info", "").Code)
}

func TestHealth(t *testing.T) {
	e, h := newTestServer(&stubService{}, nil)
	h.AddHealthCheck("redis", func(context.Context) error { return nil })

	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.AddHealthCheck("clickhouse", func(context.Context) error { return errors.New("refused") })
	rec = do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"clickhouse":"refused"}}`, rec.Body.String())
}
