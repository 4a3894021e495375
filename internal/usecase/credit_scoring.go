package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"CreditScore/internal/domain/models"
	drepo "CreditScore/internal/domain/repository"
	"CreditScore/internal/services/encoding"
	"CreditScore/internal/services/explain"
	"CreditScore/internal/services/features"
	"CreditScore/internal/services/scoring"
	"CreditScore/internal/services/validation"
	applogger "CreditScore/pkg/logger"
)

// AuditSink accepts audit records without blocking the caller.
type AuditSink interface {
	Submit(rec *models.AuditRecord) bool
}

// AuditLookup reads back stored audit records.
type AuditLookup interface {
	Get(ctx context.Context, requestID string) (*models.AuditRecord, error)
}

// CreditScoring runs the validate, normalize, build, score chain and the
// independent rule-based explanation.
type CreditScoring struct {
	validator    *validation.Validator
	normalizer   *encoding.Normalizer
	engine       *scoring.Engine
	explainer    *explain.Engine
	metrics      drepo.Metrics
	l            *applogger.Logger
	modelVersion string
	modelType    string
	sink         AuditSink
	lookup       AuditLookup
}

func NewCreditScoring(
	v *validation.Validator,
	n *encoding.Normalizer,
	engine *scoring.Engine,
	explainer *explain.Engine,
	metrics drepo.Metrics,
	l *applogger.Logger,
	modelVersion string,
) *CreditScoring {
	if l == nil {
		l = applogger.Nop()
	}
	return &CreditScoring{
		validator:    v,
		normalizer:   n,
		engine:       engine,
		explainer:    explainer,
		metrics:      metrics,
		l:            l,
		modelVersion: modelVersion,
		modelType:    DefaultModelType,
	}
}

// DefaultModelType is reported by ModelInfo unless WithModelType says otherwise.
const DefaultModelType = "Random Forest"

// WithModelType sets the model family shown by ModelInfo. "" keeps the default.
func (s *CreditScoring) WithModelType(t string) *CreditScoring {
	if t != "" {
		s.modelType = t
	}
	return s
}

// WithAudit attaches the audit trail. Either argument may be nil.
func (s *CreditScoring) WithAudit(sink AuditSink, lookup AuditLookup) *CreditScoring {
	s.sink = sink
	s.lookup = lookup
	return s
}

// Score validates, encodes and scores one application.
func (s *CreditScoring) Score(ctx context.Context, requestID string, ts time.Time, raw *models.RawApplication) (*models.ScoringResult, error) {
	start := time.Now()

	enc, err := s.prepare(raw)
	if err != nil {
		return nil, err
	}
	row := features.Build(enc)

	res, err := s.engine.Score(ctx, requestID, ts, row)
	if err != nil {
		s.metrics.RecordError(errorKind(err))
		s.l.Error("Scoring failed", applogger.RequestID(requestID), applogger.Error(err))
		return nil, err
	}

	s.metrics.RecordScore(res.Score, res.ProbabilityBad, res.RiskLevel)
	s.metrics.RecordLatency("score", time.Since(start).Seconds())
	s.submitAudit(res, row)
	return res, nil
}

// Explain returns the rule-based view. The classifier is not called.
func (s *CreditScoring) Explain(_ context.Context, requestID string, raw *models.RawApplication) (*models.ExplanationResult, error) {
	start := time.Now()

	enc, err := s.prepare(raw)
	if err != nil {
		return nil, err
	}
	factors, level, fired := s.explainer.Explain(enc)

	s.metrics.RecordExplanation(level, fired)
	s.metrics.RecordLatency("explain", time.Since(start).Seconds())
	return &models.ExplanationResult{
		RequestID:         requestID,
		TopRiskFactors:    factors,
		RiskLevel:         level,
		ExplanationMethod: explain.Method,
	}, nil
}

// ModelInfo describes the deployed model and the versions in use.
func (s *CreditScoring) ModelInfo() models.ModelInfo {
	return models.ModelInfo{
		ModelType:          s.modelType,
		ScoreMethod:        "Linear transformation of P(Bad) to [300, 850]",
		TrainingDataset:    "German Credit Dataset (UCI)",
		ValidationStrategy: "Train-test split (70-30)",
		RecallBad:          0.82,
		BiasAwareness:      "Monitored for protected attributes",
		Governance:         "Model versioning and audit trail enabled",
		ModelVersion:       s.modelVersion,
		EncodingVersion:    s.normalizer.Table().Version(),
	}
}

// AuditRecord returns a stored audit record, ErrAuditUnavailable when no
// lookup backend is configured, or repository.ErrNotFound.
func (s *CreditScoring) AuditRecord(ctx context.Context, requestID string) (*models.AuditRecord, error) {
	if s.lookup == nil {
		return nil, ErrAuditUnavailable
	}
	return s.lookup.Get(ctx, requestID)
}

func (s *CreditScoring) prepare(raw *models.RawApplication) (*models.EncodedApplication, error) {
	if err := s.validator.Validate(raw); err != nil {
		s.metrics.RecordError("validation")
		return nil, err
	}
	enc, err := s.normalizer.Normalize(raw)
	if err != nil {
		s.metrics.RecordError("encoding")
		return nil, err
	}
	return enc, nil
}

func (s *CreditScoring) submitAudit(res *models.ScoringResult, row models.FeatureRow) {
	if s.sink == nil {
		return
	}
	snapshot, err := json.Marshal(row)
	if err != nil {
		s.l.Warn("Feature snapshot not serializable", applogger.RequestID(res.RequestID), applogger.Error(err))
	}
	s.sink.Submit(&models.AuditRecord{
		RequestID:       res.RequestID,
		Timestamp:       res.Timestamp,
		ModelVersion:    s.modelVersion,
		EncodingVersion: s.normalizer.Table().Version(),
		Prediction:      res.Prediction,
		ProbabilityBad:  res.ProbabilityBad,
		Score:           res.Score,
		RiskLevel:       res.RiskLevel,
		Features:        string(snapshot),
	})
}

func errorKind(err error) string {
	var schemaErr *models.SchemaError
	if errors.As(err, &schemaErr) {
		return "schema"
	}
	return "classifier"
}

// NewErrorResponse builds the flat failure body for err. ts is omitted when nil.
func NewErrorResponse(requestID string, ts *time.Time, err error) models.ErrorResponse {
	out := models.ErrorResponse{RequestID: requestID, Timestamp: ts, Error: err.Error()}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		out.Field = ve.Field
	}
	return out
}
