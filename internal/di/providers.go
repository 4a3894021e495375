package di

import (
	"context"
	"fmt"
	"time"

	domrepo "CreditScore/internal/domain/repository"
	domsvc "CreditScore/internal/domain/service"
	"CreditScore/internal/handler/api"
	mid "CreditScore/internal/middleware"
	internalrepo "CreditScore/internal/repository"
	icache "CreditScore/internal/service/cache"
	"CreditScore/internal/service/ratelimit"
	"CreditScore/internal/services/classifier"
	"CreditScore/internal/services/encoding"
	"CreditScore/internal/services/explain"
	"CreditScore/internal/services/scoring"
	"CreditScore/internal/services/validation"
	"CreditScore/internal/usecase"
	pkgch "CreditScore/pkg/clickhouse"
	"CreditScore/pkg/config"
	xhttp "CreditScore/pkg/http"
	pkgkafka "CreditScore/pkg/kafka"
	applogger "CreditScore/pkg/logger"
	"CreditScore/pkg/metrics"
	"CreditScore/pkg/server"
)

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.Info("starting credit-score",
		applogger.String("env", cfg.Environment),
		applogger.String("model_backend", cfg.Model.Backend),
		applogger.String("model_version", cfg.Model.Version),
		applogger.String("audit_backend", cfg.Audit.Backend),
		applogger.String("cache_backend", cfg.Cache.Backend),
	)
	return l, nil
}

// ProvideMetrics creates a Prometheus recorder on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(nil)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when nothing uses Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.NeedsKafka() {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		Linger:       cfg.Kafka.Producer.Linger,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		Async:        cfg.Kafka.Producer.Async,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaPublisher wraps the producer, or returns nil without one.
func ProvideKafkaPublisher(producer *pkgkafka.Producer, cfg *config.Config) *internalrepo.KafkaPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ResultsTopic, cfg.Kafka.AuditTopic)
}

// ProvideClickHouseClient connects to ClickHouse when it stores the audit trail.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Audit.Backend != usecase.AuditClickHouse {
		return nil, nil
	}
	ch := cfg.ClickHouse
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := pkgch.NewClient(ctx, pkgch.Config{
		Host:             ch.Host,
		Port:             ch.Port,
		Database:         ch.Database,
		User:             ch.User,
		Password:         ch.Password,
		UseHTTP:          ch.UseHTTP,
		AsyncInsert:      ch.AsyncInsert,
		WaitForAsync:     ch.WaitForAsync,
		DialTimeout:      ch.DialTimeout,
		ReadTimeout:      ch.ReadTimeout,
		MaxExecutionTime: ch.MaxExecutionTime,
		MaxOpenConns:     ch.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideScoreStore creates the ClickHouse audit store and its table.
func ProvideScoreStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (*internalrepo.ClickHouseScoreStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseScoreStore(ch.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}, store.SchemaStatements()...)
	if err := ch.InitSchema(ctx, stmts); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideRedisCache creates the Redis client when a cache backend needs it.
func ProvideRedisCache(cfg *config.Config) *icache.RedisCache {
	if cfg.Cache.Backend != "redis" && cfg.Cache.Backend != "layered" {
		return nil
	}
	r := cfg.Cache.Redis
	return icache.NewRedisCache(icache.RedisConfig{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
		Prefix:   r.Prefix,
		PoolSize: r.PoolSize,
	})
}

// ProvideBytesCache selects the classifier result cache. nil disables caching.
func ProvideBytesCache(cfg *config.Config, redis *icache.RedisCache) icache.BytesCache {
	switch cfg.Cache.Backend {
	case "redis":
		return redis
	case "memory":
		return icache.NewTTLCache(cfg.Cache.MaxEntries)
	case "layered":
		return icache.NewLayeredCache(icache.NewTTLCache(cfg.Cache.MaxEntries), redis, cfg.Cache.L1TTL)
	default:
		return nil
	}
}

// ProvideEncodingTable builds the encoding table from a file or the built-in default.
func ProvideEncodingTable(cfg *config.Config) (*encoding.Table, error) {
	opt := encoding.WithFallbacks(cfg.Encoding.Fallbacks)
	if cfg.Encoding.TablePath != "" {
		return encoding.LoadTable(cfg.Encoding.TablePath, opt)
	}
	return encoding.DefaultTable(opt)
}

// ProvideClassifier creates the configured classifier, wrapped in the result
// cache when one is available.
func ProvideClassifier(cfg *config.Config, table *encoding.Table, cache icache.BytesCache, l *applogger.Logger) (domsvc.Classifier, error) {
	var base domsvc.Classifier
	switch cfg.Model.Backend {
	case "http":
		base = classifier.NewHTTPClassifier(cfg.Model.ServiceURL, cfg.Model.Timeout)
	case "scorecard":
		sc, err := classifier.LoadScorecard(cfg.Model.ArtifactPath)
		if err != nil {
			return nil, fmt.Errorf("load scorecard: %w", err)
		}
		if err := sc.CheckTable(table); err != nil {
			return nil, err
		}
		l.Info("Scorecard loaded",
			applogger.String("artifact", cfg.Model.ArtifactPath),
			applogger.String("artifact_version", sc.Version()),
		)
		base = sc
	default:
		return nil, fmt.Errorf("unknown model backend: %s", cfg.Model.Backend)
	}

	if cache == nil {
		return base, nil
	}
	return classifier.NewCached(base, cache, cfg.Model.Version, cfg.Model.CacheTTL, l), nil
}

// ProvideAuditRecorder routes audit batches to the configured backend.
func ProvideAuditRecorder(
	pub *internalrepo.KafkaPublisher,
	store *internalrepo.ClickHouseScoreStore,
	m domrepo.Metrics,
	cfg *config.Config,
) (*usecase.AuditRecorder, error) {
	var (
		p domrepo.Publisher
		s domrepo.ScoreStore
	)
	if pub != nil {
		p = pub
	}
	if store != nil {
		s = store
	}
	return usecase.NewAuditRecorder(p, s, m, cfg.Audit.Backend)
}

// ProvideAuditPipeline buffers audit records in front of the recorder. It is
// nil when auditing is off.
func ProvideAuditPipeline(rec *usecase.AuditRecorder, m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *mid.AuditPipeline {
	if rec.Backend() == usecase.AuditNone {
		return nil
	}
	return mid.NewAuditPipeline(rec, m,
		mid.WithBufferSize(cfg.Audit.BufferSize),
		mid.WithBatch(cfg.Audit.BatchSize, cfg.Audit.BatchTimeout),
		mid.WithRetry(cfg.Audit.MaxRetries, 50*time.Millisecond, 2*time.Second),
		mid.WithLogger(l),
	)
}

// ProvideCreditScoring assembles the scoring use case.
func ProvideCreditScoring(
	cfg *config.Config,
	table *encoding.Table,
	clf domsvc.Classifier,
	m *metrics.Recorder,
	l *applogger.Logger,
	pipeline *mid.AuditPipeline,
	rec *usecase.AuditRecorder,
) *usecase.CreditScoring {
	uc := usecase.NewCreditScoring(
		validation.New(),
		encoding.NewNormalizer(table, l, m),
		scoring.NewEngine(clf),
		explain.NewEngine(),
		m, l, cfg.Model.Version,
	).WithModelType(cfg.Model.DisplayType())
	var sink usecase.AuditSink
	if pipeline != nil {
		sink = pipeline
	}
	var lookup usecase.AuditLookup
	if rec.Backend() == usecase.AuditClickHouse {
		lookup = rec
	}
	return uc.WithAudit(sink, lookup)
}

// ProvideKafkaConsumer creates the applications consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	cc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:     cfg.Kafka.Brokers,
		GroupID:     cc.GroupID,
		StartOffset: cc.StartOffset,
		Workers:     cc.Workers,
		BufferSize:  cc.BufferSize,
		RetryMax:    cc.RetryMax,
		BackoffMin:  cc.BackoffMin,
		BackoffMax:  cc.BackoffMax,
		DLQTopic:    cc.DLQTopic,
		MinBytes:    cc.MinBytes,
		MaxBytes:    cc.MaxBytes,
	}, l)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.Use(pkgkafka.TraceHook())
	return consumer, nil
}

// ProvideApplicationsHandler scores applications read from Kafka.
func ProvideApplicationsHandler(
	cfg *config.Config,
	uc *usecase.CreditScoring,
	pub *internalrepo.KafkaPublisher,
	m domrepo.Metrics,
) *usecase.KafkaApplicationsHandler {
	if !cfg.Kafka.Consumer.Enabled || pub == nil {
		return nil
	}
	return usecase.NewKafkaApplicationsHandler(cfg.Kafka.ApplicationsTopic, uc, pub, m)
}

// ProvideRateLimiter creates the per-client limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
}

// ProvideHTTPHandler creates the API handler with health probes for the
// configured infrastructure.
func ProvideHTTPHandler(
	l *applogger.Logger,
	uc *usecase.CreditScoring,
	limiter *ratelimit.Limiter,
	redis *icache.RedisCache,
	store *internalrepo.ClickHouseScoreStore,
) *api.CreditEchoHandler {
	h := api.NewCreditEchoHandler(l, uc, limiter)
	if redis != nil {
		h.AddHealthCheck("redis", redis.Ping)
	}
	if store != nil {
		h.AddHealthCheck("clickhouse", store.Health)
	}
	return h
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.CreditEchoHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins...),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application and attaches the log collector.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaApplicationsHandler,
	pipeline *mid.AuditPipeline,
	pub *internalrepo.KafkaPublisher,
	ch *pkgch.Client,
	redis *icache.RedisCache,
) *server.App {
	if cfg.Logging.Collector.Enabled && pub != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.Interval,
			CountThreshold: cfg.Logging.Collector.Threshold,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      pub,
		})
	}

	app := server.New(l, srv)
	if consumer != nil && kh != nil {
		app.WithConsumer(consumer, kh)
	}
	if pipeline != nil {
		app.WithAuditPipeline(pipeline)
	}
	if pub != nil {
		app.AddCloser("kafka publisher", pub.Close)
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch.Close)
	}
	if redis != nil {
		app.AddCloser("redis", redis.Close)
	}
	return app
}
