package repository

import (
	"context"

	"CreditScore/internal/domain/models"
)

// ScoreStore persists audit records of issued scores.
type ScoreStore interface {
	StoreBatch(ctx context.Context, records []*models.AuditRecord) error
	Get(ctx context.Context, requestID string) (*models.AuditRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher emits scoring events to a message bus.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	PublishAudit(ctx context.Context, records []*models.AuditRecord) error
	Close() error
}

// Metrics records scoring activity.
type Metrics interface {
	RecordScore(score int, probabilityBad float64, riskLevel string)
	RecordExplanation(riskLevel string, fired int)
	RecordFallback(field string)
	RecordAudit(backend, status string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
