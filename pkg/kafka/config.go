package kafka

import (
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrNoBrokers is returned when a client is built without broker addresses.
var ErrNoBrokers = errors.New("kafka: no brokers configured")

// ProducerConfig configures a Producer. Zero values take the defaults below.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int    // -1 waits for all in-sync replicas
	Compression  string // gzip, snappy, lz4, zstd
	MaxAttempts  int
	Linger       time.Duration
	BatchSize    int
	BatchBytes   int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	Async        bool
}

func (c ProducerConfig) withDefaults() ProducerConfig {
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Linger <= 0 {
		c.Linger = 50 * time.Millisecond
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchBytes <= 0 {
		c.BatchBytes = 1 << 20
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	return c
}

// ConsumerConfig configures a Consumer. Zero values take the defaults below.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	StartOffset string // earliest or latest, for groups without a committed offset
	Workers     int
	BufferSize  int
	RetryMax    int // retries after the first attempt
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.GroupID == "" {
		c.GroupID = "credit-scorer"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 10
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.BackoffMin <= 0 {
		c.BackoffMin = 50 * time.Millisecond
	}
	if c.BackoffMax < c.BackoffMin {
		c.BackoffMax = c.BackoffMin
	}
	if c.MinBytes <= 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
	return c
}

func (c ConsumerConfig) startOffset() int64 {
	if c.StartOffset == "latest" {
		return kafka.LastOffset
	}
	return kafka.FirstOffset
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}
