package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topic   string
	entries []AggregatedLogEntry
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.entries = append(p.entries, payload.([]AggregatedLogEntry)...)
	return nil
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.Info("scored", String("request_id", "r1"), Int("score", 740), Float64("p", 0.2))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "scored", line["message"])
	assert.Equal(t, "r1", line["request_id"])
	assert.EqualValues(t, 740, line["score"])
}

func TestCollectorDeduplicatesWarnings(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewWithWriter(&bytes.Buffer{})
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "credit.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Warn("encoding fallback", String("field", "purpose"))
	}
	l.Error("audit flush failed")
	l.Info("not collected")
	assert.Equal(t, 2, l.collector.Pending())

	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, "credit.logs", pub.topic)
	require.Len(t, pub.entries, 2)

	counts := map[string]int{}
	for _, e := range pub.entries {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 3, counts["encoding fallback"])
	assert.Equal(t, 1, counts["audit flush failed"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "credit.logs", Publisher: pub})

	c.AddLog("warn", "slow classifier", nil, "usecase/credit_scoring.go:10")
	c.AddLog("warn", "slow classifier", map[string]interface{}{"ms": 900}, "usecase/credit_scoring.go:10")
	assert.Equal(t, 0, c.Pending())

	c.Close()
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.entries, 2)
}

func TestErrorFieldAndNilError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.Warn("upstream", Error(assert.AnError), Duration("took", time.Second), Bool("cached", true))
	l.Warn("clean", Error(nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, assert.AnError.Error(), first["error"])
	assert.Equal(t, true, first["cached"])
	assert.Contains(t, second, "error")
	assert.Nil(t, second["error"])
}
