package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
	drepo "CreditScore/internal/domain/repository"
)

type stubPublisher struct {
	audited int
	err     error
}

func (p *stubPublisher) Publish(context.Context, string, any) error { return p.err }

func (p *stubPublisher) PublishAudit(_ context.Context, records []*models.AuditRecord) error {
	if p.err != nil {
		return p.err
	}
	p.audited += len(records)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

type stubStore struct {
	records map[string]*models.AuditRecord
}

func (s *stubStore) StoreBatch(_ context.Context, records []*models.AuditRecord) error {
	for _, r := range records {
		s.records[r.RequestID] = r
	}
	return nil
}

func (s *stubStore) Get(_ context.Context, id string) (*models.AuditRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, drepo.ErrNotFound
	}
	return r, nil
}

func (s *stubStore) Health(context.Context) error { return nil }
func (s *stubStore) Close() error                 { return nil }

func TestNewAuditRecorderChecksBackend(t *testing.T) {
	m := newStubMetrics()
	_, err := NewAuditRecorder(nil, nil, m, AuditKafka)
	assert.Error(t, err)
	_, err = NewAuditRecorder(nil, nil, m, AuditClickHouse)
	assert.Error(t, err)
	_, err = NewAuditRecorder(nil, nil, m, "s3")
	assert.Error(t, err)
	r, err := NewAuditRecorder(nil, nil, m, AuditNone)
	require.NoError(t, err)
	assert.Equal(t, AuditNone, r.Backend())
}

func TestAuditRecorderKafka(t *testing.T) {
	m := newStubMetrics()
	pub := &stubPublisher{}
	r, err := NewAuditRecorder(pub, nil, m, AuditKafka)
	require.NoError(t, err)

	batch := []*models.AuditRecord{{RequestID: "a"}, {RequestID: "b"}}
	require.NoError(t, r.RecordBatch(context.Background(), batch))
	assert.Equal(t, 2, pub.audited)
	assert.Equal(t, 2, m.audit["kafka/ok"])

	pub.err = errors.New("down")
	assert.Error(t, r.RecordBatch(context.Background(), batch))
	assert.Equal(t, 2, m.audit["kafka/error"])

	_, err = r.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrAuditUnavailable)
}

func TestAuditRecorderClickHouse(t *testing.T) {
	m := newStubMetrics()
	store := &stubStore{records: map[string]*models.AuditRecord{}}
	r, err := NewAuditRecorder(nil, store, m, AuditClickHouse)
	require.NoError(t, err)

	require.NoError(t, r.RecordBatch(context.Background(), []*models.AuditRecord{{RequestID: "a", Score: 700}}))
	got, err := r.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 700, got.Score)

	_, err = r.Get(context.Background(), "zz")
	assert.ErrorIs(t, err, drepo.ErrNotFound)
}

func TestAuditRecorderNone(t *testing.T) {
	m := newStubMetrics()
	r, err := NewAuditRecorder(nil, nil, m, AuditNone)
	require.NoError(t, err)
	require.NoError(t, r.RecordBatch(context.Background(), []*models.AuditRecord{{RequestID: "a"}}))
	assert.Empty(t, m.audit)
}
