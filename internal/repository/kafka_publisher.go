package repository

import (
	"context"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	pkgkafka "CreditScore/pkg/kafka"
)

// MessageWriter is the part of pkg/kafka.Producer the publisher needs.
type MessageWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPublisher writes scoring results and audit records to Kafka. It also
// ships aggregated log batches for the logger collector.
type KafkaPublisher struct {
	w            MessageWriter
	resultsTopic string
	auditTopic   string
}

func NewKafkaPublisher(w MessageWriter, resultsTopic, auditTopic string) *KafkaPublisher {
	return &KafkaPublisher{w: w, resultsTopic: resultsTopic, auditTopic: auditTopic}
}

// Publish sends payload to the results topic keyed by request id.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload any) error {
	return p.w.Publish(ctx, p.resultsTopic, []byte(key), payload)
}

// PublishAudit sends records to the audit topic, one message per record.
func (p *KafkaPublisher) PublishAudit(ctx context.Context, records []*models.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(r.RequestID), Value: r})
	}
	return p.w.PublishBatch(ctx, p.auditTopic, msgs)
}

// PublishMessage implements logger.Publisher.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.w.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.w != nil {
		return p.w.Close()
	}
	return nil
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)
