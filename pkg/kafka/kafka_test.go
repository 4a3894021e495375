package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeFetcher struct {
	mu        sync.Mutex
	committed []int64
}

func (f *fakeFetcher) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeFetcher) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeFetcher) Close() error { return nil }

type handlerFunc func(context.Context, []byte) error

func (h handlerFunc) Topic() string { return "apps" }
func (h handlerFunc) Handle(ctx context.Context, b []byte) error { return h(ctx, b) }

func newTestConsumer(t *testing.T, retryMax int, h MessageHandler) (*Consumer, *fakeFetcher, *fakeWriter) {
	t.Helper()
	c, err := NewConsumer(ConsumerConfig{
		Brokers:    []string{"localhost:9092"},
		RetryMax:   retryMax,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
		DLQTopic:   "apps.dlq",
	}, nil)
	require.NoError(t, err)

	f := &fakeFetcher{}
	dlq := &fakeWriter{}
	c.dlq = dlq
	c.Register(h)
	c.readers["apps"] = f
	return c, f, dlq
}

func TestProducerEncodesAndTagsTrace(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "snappy")
	ctx := WithTraceID(context.Background(), "req-1")

	require.NoError(t, p.Publish(ctx, "scores", []byte("req-1"), map[string]int{"score": 740}))
	require.NoError(t, p.PublishBatch(context.Background(), "audit", []Message{
		{Key: []byte("a"), Value: "raw"},
		{Key: []byte("b"), Value: []byte(`{"x":1}`)},
	}))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "scores", w.msgs[0].Topic)
	assert.JSONEq(t, `{"score":740}`, string(w.msgs[0].Value))
	assert.Equal(t, "req-1", ExtractTraceID(w.msgs[0]))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
	assert.Empty(t, ExtractTraceID(w.msgs[1]))
	assert.Equal(t, `{"x":1}`, string(w.msgs[2].Value))
}

func TestProducerReportsWriteErrors(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("leader not available")}, "gzip")
	err := p.Publish(context.Background(), "scores", nil, "x")
	assert.ErrorContains(t, err, "leader not available")

	assert.NoError(t, p.PublishBatch(context.Background(), "scores", nil))
}

func TestConsumerRetriesThenCommits(t *testing.T) {
	calls := 0
	c, f, dlq := newTestConsumer(t, 2, handlerFunc(func(context.Context, []byte) error {
		calls++
		if calls < 3 {
			return errors.New("publish timeout")
		}
		return nil
	}))

	c.process(kafka.Message{Topic: "apps", Offset: 7, Value: []byte("{}")})
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int64{7}, f.committed)
	assert.Empty(t, dlq.msgs)
}

func TestConsumerDeadLettersAfterRetries(t *testing.T) {
	calls := 0
	c, f, dlq := newTestConsumer(t, 1, handlerFunc(func(context.Context, []byte) error {
		calls++
		return errors.New("broker down")
	}))

	c.process(kafka.Message{Topic: "apps", Offset: 3, Key: []byte("k"), Value: []byte("payload")})
	assert.Equal(t, 2, calls)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "apps.dlq", dlq.msgs[0].Topic)
	assert.Equal(t, "payload", string(dlq.msgs[0].Value))
	assert.Equal(t, []int64{3}, f.committed)

	headers := map[string]string{}
	for _, h := range dlq.msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "apps", headers["source_topic"])
	assert.Equal(t, "2", headers["attempts"])
	assert.Equal(t, "broker down", headers["error"])
}

func TestConsumerPermanentSkipsRetries(t *testing.T) {
	calls := 0
	c, f, dlq := newTestConsumer(t, 5, handlerFunc(func(context.Context, []byte) error {
		calls++
		return Permanent(errors.New("bad json"))
	}))

	c.process(kafka.Message{Topic: "apps", Offset: 1})
	assert.Equal(t, 1, calls)
	assert.Len(t, dlq.msgs, 1)
	assert.Equal(t, []int64{1}, f.committed)
}

func TestConsumerPanicIsPermanent(t *testing.T) {
	c, _, dlq := newTestConsumer(t, 3, handlerFunc(func(context.Context, []byte) error {
		panic("nil map")
	}))

	c.process(kafka.Message{Topic: "apps", Offset: 1})
	require.Len(t, dlq.msgs, 1)
}

func TestConsumerKeepsOffsetWhenDLQFails(t *testing.T) {
	c, f, dlq := newTestConsumer(t, 0, handlerFunc(func(context.Context, []byte) error {
		return errors.New("boom")
	}))
	dlq.err = errors.New("dlq unavailable")

	c.process(kafka.Message{Topic: "apps", Offset: 9})
	assert.Empty(t, f.committed)
}

func TestConsumerHookSeesTrace(t *testing.T) {
	var seen string
	c, _, _ := newTestConsumer(t, 0, handlerFunc(func(ctx context.Context, _ []byte) error {
		seen = TraceID(ctx)
		return nil
	}))
	c.Use(TraceHook())

	c.process(kafka.Message{Topic: "apps", Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}})
	assert.Equal(t, "abc", seen)
}

func TestConsumerStop(t *testing.T) {
	c, _, _ := newTestConsumer(t, 0, handlerFunc(func(context.Context, []byte) error { return nil }))
	c.fetchers.Add(1)
	go c.fetch("apps", c.readers["apps"])
	c.workers.Add(1)
	go c.work()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
	assert.NoError(t, c.Stop(ctx), "second stop is a no-op")
}

func TestStartRequiresHandlers(t *testing.T) {
	c, err := NewConsumer(ConsumerConfig{Brokers: []string{"localhost:9092"}}, nil)
	require.NoError(t, err)
	assert.Error(t, c.Start())
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))

	base := errors.New("bad payload")
	err := fmt.Errorf("handle: %w", Permanent(base))
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestDefaultsAndCompression(t *testing.T) {
	pc := ProducerConfig{}.withDefaults()
	assert.Equal(t, -1, pc.RequiredAcks)
	assert.Equal(t, "snappy", pc.Compression)

	cc := ConsumerConfig{RetryMax: -1, BackoffMin: time.Second}.withDefaults()
	assert.Equal(t, 0, cc.RetryMax)
	assert.Equal(t, time.Second, cc.BackoffMax)
	assert.Equal(t, kafka.FirstOffset, cc.startOffset())
	assert.Equal(t, kafka.LastOffset, ConsumerConfig{StartOffset: "latest"}.startOffset())

	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{})
	assert.ErrorIs(t, err, ErrNoBrokers)
	_, err = NewConsumer(ConsumerConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoBrokers)
}
