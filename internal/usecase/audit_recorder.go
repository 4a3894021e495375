package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CreditScore/internal/domain/models"
	drepo "CreditScore/internal/domain/repository"
)

// Audit backends.
const (
	AuditKafka      = "kafka"
	AuditClickHouse = "clickhouse"
	AuditNone       = "none"
)

// ErrAuditUnavailable means the configured backend cannot serve lookups.
var ErrAuditUnavailable = errors.New("audit lookup requires the clickhouse backend")

// AuditRecorder routes audit records to the configured backend.
type AuditRecorder struct {
	pub     drepo.Publisher
	store   drepo.ScoreStore
	metrics drepo.Metrics
	backend string
}

// NewAuditRecorder creates an AuditRecorder. pub and store may be nil when
// the backend does not use them.
func NewAuditRecorder(pub drepo.Publisher, store drepo.ScoreStore, metrics drepo.Metrics, backend string) (*AuditRecorder, error) {
	switch backend {
	case AuditKafka:
		if pub == nil {
			return nil, fmt.Errorf("audit backend %q needs a publisher", backend)
		}
	case AuditClickHouse:
		if store == nil {
			return nil, fmt.Errorf("audit backend %q needs a store", backend)
		}
	case AuditNone:
	default:
		return nil, fmt.Errorf("unknown audit backend: %s", backend)
	}
	return &AuditRecorder{pub: pub, store: store, metrics: metrics, backend: backend}, nil
}

func (r *AuditRecorder) Backend() string { return r.backend }

// RecordBatch writes records to the backend.
func (r *AuditRecorder) RecordBatch(ctx context.Context, records []*models.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch r.backend {
	case AuditKafka:
		err = r.pub.PublishAudit(ctx, records)
	case AuditClickHouse:
		err = r.store.StoreBatch(ctx, records)
	case AuditNone:
		return nil
	}

	if err != nil {
		r.metrics.RecordAudit(r.backend, "error", len(records))
		return fmt.Errorf("record audit batch: %w", err)
	}

	r.metrics.RecordAudit(r.backend, "ok", len(records))
	r.metrics.RecordLatency("audit_batch", time.Since(start).Seconds())
	return nil
}

// Get looks up a stored record. Only the clickhouse backend can answer.
func (r *AuditRecorder) Get(ctx context.Context, requestID string) (*models.AuditRecord, error) {
	if r.backend != AuditClickHouse {
		return nil, ErrAuditUnavailable
	}
	return r.store.Get(ctx, requestID)
}
