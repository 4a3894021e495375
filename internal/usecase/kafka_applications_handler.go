package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"CreditScore/internal/domain/models"
	domrepo "CreditScore/internal/domain/repository"
	pkgkafka "CreditScore/pkg/kafka"
)

// Scorer is the scoring capability the Kafka handler needs.
type Scorer interface {
	Score(ctx context.Context, requestID string, ts time.Time, raw *models.RawApplication) (*models.ScoringResult, error)
}

// ResultPublisher sends a reply keyed by request id.
type ResultPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

type applicationMessage struct {
	RequestID   string                 `json:"request_id"`
	Application *models.RawApplication `json:"application"`
}

type resultMessage struct {
	RequestID string                `json:"request_id"`
	Timestamp time.Time             `json:"timestamp"`
	Result    *models.ScoringResult `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
	Field     string                `json:"field,omitempty"`
}

// KafkaApplicationsHandler scores applications read from Kafka and publishes
// one reply per message. Undecodable messages are permanent failures; scoring
// failures are replies, not errors.
type KafkaApplicationsHandler struct {
	topic   string
	scorer  Scorer
	pub     ResultPublisher
	metrics domrepo.Metrics
	now     func() time.Time
}

func NewKafkaApplicationsHandler(topic string, scorer Scorer, pub ResultPublisher, metrics domrepo.Metrics) *KafkaApplicationsHandler {
	return &KafkaApplicationsHandler{
		topic:   topic,
		scorer:  scorer,
		pub:     pub,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (h *KafkaApplicationsHandler) Topic() string { return h.topic }

// incoming message schema: {"request_id"?, "application": {...}}
func (h *KafkaApplicationsHandler) Handle(ctx context.Context, b []byte) error {
	var m applicationMessage
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode application message: %w", err))
	}
	if m.Application == nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(errors.New("application message without application"))
	}

	requestID := m.RequestID
	if requestID == "" {
		requestID = pkgkafka.TraceID(ctx)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ts := h.now()
	out := resultMessage{RequestID: requestID, Timestamp: ts}
	res, err := h.scorer.Score(ctx, requestID, ts, m.Application)
	if err != nil {
		e := NewErrorResponse(requestID, &ts, err)
		out.Error, out.Field = e.Error, e.Field
	} else {
		out.Result = res
	}

	start := time.Now()
	if err := h.pub.Publish(ctx, requestID, out); err != nil {
		h.metrics.RecordError("consumer_publish")
		return fmt.Errorf("publish result %s: %w", requestID, err)
	}
	h.metrics.RecordLatency("consumer_publish", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaApplicationsHandler)(nil)
