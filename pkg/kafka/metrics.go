package kafka

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type clientMetrics struct {
	published      *prometheus.CounterVec
	publishedBytes *prometheus.CounterVec
	publishLatency *prometheus.HistogramVec
	handled        *prometheus.CounterVec
	handleLatency  *prometheus.HistogramVec
	queueDepth     *prometheus.GaugeVec
}

var (
	stats     *clientMetrics
	statsOnce sync.Once
)

func initMetrics() {
	statsOnce.Do(func() {
		stats = &clientMetrics{
			published: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_kafka_published_total",
				Help: "Records written to Kafka by topic and result.",
			}, []string{"topic", "result"}),
			publishedBytes: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_kafka_published_bytes_total",
				Help: "Payload bytes written to Kafka.",
			}, []string{"topic", "compression"}),
			publishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "credit_kafka_publish_seconds",
				Help:    "Latency of one Kafka write call.",
				Buckets: prometheus.DefBuckets,
			}, []string{"topic"}),
			handled: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_kafka_consumed_total",
				Help: "Consumed records by topic and outcome (ok, dead_lettered, dropped).",
			}, []string{"topic", "outcome"}),
			handleLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "credit_kafka_handle_seconds",
				Help:    "Time spent handling one record, retries included.",
				Buckets: prometheus.DefBuckets,
			}, []string{"topic"}),
			queueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "credit_kafka_consumer_queue_depth",
				Help: "Fetched records waiting for a worker.",
			}, []string{"topic"}),
		}
	})
}

func (m *clientMetrics) observePublish(topic, compression string, n, size int, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(topic, result).Add(float64(n))
	m.publishLatency.WithLabelValues(topic).Observe(d.Seconds())
	if err == nil {
		m.publishedBytes.WithLabelValues(topic, compression).Add(float64(size))
	}
}

func (m *clientMetrics) observeHandled(topic, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.handled.WithLabelValues(topic, outcome).Inc()
	m.handleLatency.WithLabelValues(topic).Observe(d.Seconds())
}

func (m *clientMetrics) setQueueDepth(topic string, n int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(topic).Set(float64(n))
}
