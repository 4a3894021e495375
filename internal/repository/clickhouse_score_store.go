package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	applogger "CreditScore/pkg/logger"
)

const insertChunkSize = 1000

// ClickHouseScoreStore keeps the audit trail of issued scores in ClickHouse.
type ClickHouseScoreStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHouseScoreStore(db *sql.DB, table string, l *applogger.Logger) *ClickHouseScoreStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseScoreStore{db: db, table: table, l: l}
}

// SchemaStatements returns the DDL for the audit table.
func (s *ClickHouseScoreStore) SchemaStatements() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            request_id       String,
            ts               DateTime64(3, 'UTC'),
            model_version    LowCardinality(String),
            encoding_version LowCardinality(String),
            prediction       UInt8,
            probability_bad  Float64,
            score            UInt16,
            risk_level       LowCardinality(String),
            features         String
        ) ENGINE = MergeTree
        ORDER BY (request_id, ts)
    `, s.table)}
}

func (s *ClickHouseScoreStore) StoreBatch(ctx context.Context, records []*models.AuditRecord) error {
	for start := 0; start < len(records); start += insertChunkSize {
		end := min(start+insertChunkSize, len(records))

		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*9)
		for _, r := range records[start:end] {
			if r == nil || r.RequestID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.RequestID,
				r.Timestamp.UTC(),
				r.ModelVersion,
				r.EncodingVersion,
				r.Prediction,
				r.ProbabilityBad,
				r.Score,
				r.RiskLevel,
				r.Features,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (request_id, ts, model_version, encoding_version, prediction, probability_bad, score, risk_level, features) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse audit insert error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
			return fmt.Errorf("insert audit records: %w", err)
		}
	}
	return nil
}

// Get returns the latest record for requestID or domrepo.ErrNotFound.
func (s *ClickHouseScoreStore) Get(ctx context.Context, requestID string) (*models.AuditRecord, error) {
	q := fmt.Sprintf(`SELECT request_id, ts, model_version, encoding_version, prediction, probability_bad, score, risk_level, features
        FROM %s WHERE request_id = ? ORDER BY ts DESC LIMIT 1`, s.table)

	var r models.AuditRecord
	err := s.db.QueryRowContext(ctx, q, requestID).Scan(
		&r.RequestID, &r.Timestamp, &r.ModelVersion, &r.EncodingVersion,
		&r.Prediction, &r.ProbabilityBad, &r.Score, &r.RiskLevel, &r.Features,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get audit record: %w", err)
	}
	return &r, nil
}

func (s *ClickHouseScoreStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the connection pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseScoreStore) Close() error {
	return nil
}

var _ domrepo.ScoreStore = (*ClickHouseScoreStore)(nil)
