package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"CreditScore/pkg/logger"
)

// MessageHandler handles the records of one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type partitionKey struct {
	topic     string
	partition int
}

var errStopped = errors.New("kafka: consumer stopping")

// Consumer reads registered topics in one consumer group and hands records to
// a worker pool. Records of one partition are handled one at a time. A record
// is committed once it succeeds or has been dead-lettered.
type Consumer struct {
	cfg      ConsumerConfig
	log      *logger.Logger
	hook     ConsumerHook
	handlers map[string]MessageHandler
	readers  map[string]fetcher
	dlq      messageWriter
	queue    chan kafka.Message

	ctx      context.Context
	cancel   context.CancelFunc
	fetchers sync.WaitGroup
	workers  sync.WaitGroup
	stopOnce sync.Once

	locksMu sync.Mutex
	locks   map[partitionKey]*sync.Mutex
}

func NewConsumer(cfg ConsumerConfig, l *logger.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	cfg = cfg.withDefaults()
	if l == nil {
		l = logger.Nop()
	}
	initMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		cfg:      cfg,
		log:      l,
		hook:     NoopHook{},
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]fetcher),
		queue:    make(chan kafka.Message, cfg.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
		locks:    make(map[partitionKey]*sync.Mutex),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.Hash{}}
	}
	return c, nil
}

// Use installs a lifecycle hook. Call before Start.
func (c *Consumer) Use(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Register adds a handler for its topic. Call before Start.
func (c *Consumer) Register(h MessageHandler) {
	if _, dup := c.handlers[h.Topic()]; dup {
		c.log.Warn("Kafka handler already registered", logger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

// Start opens one reader per registered topic and launches the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka: no handlers registered")
	}

	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     c.cfg.Brokers,
			GroupID:     c.cfg.GroupID,
			Topic:       topic,
			MinBytes:    c.cfg.MinBytes,
			MaxBytes:    c.cfg.MaxBytes,
			StartOffset: c.cfg.startOffset(),
		})
	}

	for i := 0; i < c.cfg.Workers; i++ {
		c.workers.Add(1)
		go c.work()
	}
	for topic, r := range c.readers {
		c.fetchers.Add(1)
		go c.fetch(topic, r)
	}

	c.log.Info("Kafka consumer started",
		logger.String("group", c.cfg.GroupID),
		logger.Int("topics", len(c.readers)),
		logger.Int("workers", c.cfg.Workers),
	)
	return nil
}

// Stop stops fetching, lets workers finish what is queued and closes the
// readers. Records whose retries are cut short stay uncommitted and are
// redelivered to the group.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		c.cancel()
		c.fetchers.Wait()
		close(c.queue)

		done := make(chan struct{})
		go func() {
			c.workers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("Kafka reader close failed", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Warn("Kafka DLQ writer close failed", logger.Error(cerr))
			}
		}
		c.log.Info("Kafka consumer stopped")
	})
	return err
}

func (c *Consumer) fetch(topic string, r fetcher) {
	defer c.fetchers.Done()
	for {
		km, err := r.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Error("Kafka fetch failed", logger.String("topic", topic), logger.Error(err))
			select {
			case <-time.After(c.cfg.BackoffMin):
				continue
			case <-c.ctx.Done():
				return
			}
		}

		select {
		case c.queue <- km:
			stats.setQueueDepth(topic, len(c.queue))
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Consumer) work() {
	defer c.workers.Done()
	for km := range c.queue {
		c.process(km)
	}
}

func (c *Consumer) process(km kafka.Message) {
	h, ok := c.handlers[km.Topic]
	if !ok {
		return
	}

	lock := c.partitionLock(km.Topic, km.Partition)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	attempts, err := c.handle(h, km)
	if errors.Is(err, errStopped) {
		return
	}

	outcome := "ok"
	if err != nil {
		c.hook.OnError(context.Background(), km.Topic, km, km.Value, err)
		c.log.Error("Kafka record failed",
			logger.String("topic", km.Topic),
			logger.Int("partition", km.Partition),
			logger.Int64("offset", km.Offset),
			logger.Int("attempts", attempts),
			logger.Error(err),
		)
		outcome = "dropped"
		if c.dlq != nil {
			if dlqErr := c.deadLetter(km, attempts, err); dlqErr != nil {
				c.log.Error("Kafka DLQ write failed", logger.String("topic", c.cfg.DLQTopic), logger.Error(dlqErr))
				stats.observeHandled(km.Topic, outcome, time.Since(start))
				return
			}
			outcome = "dead_lettered"
		}
	}

	stats.observeHandled(km.Topic, outcome, time.Since(start))
	if r := c.readers[km.Topic]; r != nil {
		c.commit(r, km)
	}
}

// handle runs the handler until it succeeds, fails permanently or runs out of
// retries. It returns errStopped when Stop interrupts a backoff.
func (c *Consumer) handle(h MessageHandler, km kafka.Message) (int, error) {
	ctx, km, data, err := c.hook.BeforeHandle(context.Background(), km.Topic, km, km.Value)
	if err != nil {
		return 0, Permanent(err)
	}

	for attempt := 1; ; attempt++ {
		err = safeHandle(ctx, h, data)
		c.hook.AfterHandle(ctx, km.Topic, km, data, err)
		if err == nil || IsPermanent(err) || attempt > c.cfg.RetryMax {
			return attempt, err
		}

		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.ctx.Done():
			return attempt, errStopped
		}
	}
}

func safeHandle(ctx context.Context, h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return h.Handle(ctx, data)
}

func (c *Consumer) deadLetter(km kafka.Message, attempts int, cause error) error {
	headers := append([]kafka.Header{}, km.Headers...)
	headers = append(headers,
		kafka.Header{Key: "source_topic", Value: []byte(km.Topic)},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "attempts", Value: []byte(strconv.Itoa(attempts))},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.dlq.WriteMessages(ctx, kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     km.Key,
		Value:   km.Value,
		Headers: headers,
		Time:    time.Now(),
	})
}

func (c *Consumer) commit(r fetcher, km kafka.Message) {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("Kafka commit failed",
		logger.String("topic", km.Topic),
		logger.Int64("offset", km.Offset),
		logger.Error(err),
	)
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	key := partitionKey{topic: topic, partition: partition}
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// backoffWithJitter doubles min per attempt, caps at max and subtracts up to
// half as jitter.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := max
	if attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	return d - time.Duration(rand.Int63n(int64(d)/2+1))
}
