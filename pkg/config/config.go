package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development" env:"CREDIT_ENV"`
	Server      ServerConfig    `yaml:"server"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Logging     LoggingConfig   `yaml:"logging"`
	Model       ModelConfig     `yaml:"model"`
	Encoding    EncodingConfig  `yaml:"encoding"`
	Cache       CacheConfig     `yaml:"cache"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Audit       AuditConfig     `yaml:"audit"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	ClickHouse  ClickHouse      `yaml:"clickhouse"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8000" env:"CREDIT_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	BodyLimit       string        `yaml:"body_limit" default:"64K"`
	CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type LoggingConfig struct {
	Level     string `yaml:"level" default:"info" env:"CREDIT_LOG_LEVEL"`
	Format    string `yaml:"format" default:"json"`
	Output    string `yaml:"output" default:"stdout"`
	Collector struct {
		Enabled   bool          `yaml:"enabled"`
		Interval  time.Duration `yaml:"interval" default:"30s"`
		Threshold int           `yaml:"threshold" default:"100"`
	} `yaml:"collector"`
}

// ModelConfig selects the classifier. Version must change whenever the
// artifact or the encoding table changes.
type ModelConfig struct {
	Backend      string        `yaml:"backend" default:"scorecard" env:"CREDIT_MODEL_BACKEND"`
	Type         string        `yaml:"type" env:"CREDIT_MODEL_TYPE"`
	ServiceURL   string        `yaml:"service_url" env:"CREDIT_MODEL_SERVICE_URL"`
	Timeout      time.Duration `yaml:"timeout" default:"3s"`
	ArtifactPath string        `yaml:"artifact_path" default:"config/model/scorecard.yaml" env:"CREDIT_MODEL_ARTIFACT"`
	Version      string        `yaml:"version" default:"german-credit-rf-v1" env:"CREDIT_MODEL_VERSION"`
	CacheTTL     time.Duration `yaml:"cache_ttl" default:"10m"`
}

// DisplayType is the model family reported by model-info. An unset Type
// follows the backend: the bundled scorecard is logistic, a model server is
// assumed to host the random forest.
func (m ModelConfig) DisplayType() string {
	switch {
	case m.Type != "":
		return m.Type
	case m.Backend == "scorecard":
		return "Logistic scorecard"
	default:
		return "Random Forest"
	}
}

type EncodingConfig struct {
	TablePath string            `yaml:"table_path" env:"CREDIT_ENCODING_TABLE"`
	Fallbacks map[string]string `yaml:"fallbacks"`
}

type CacheConfig struct {
	Backend    string        `yaml:"backend" default:"memory" env:"CREDIT_CACHE_BACKEND"`
	MaxEntries int           `yaml:"max_entries" default:"10000"`
	L1TTL      time.Duration `yaml:"l1_ttl" default:"30s"`
	Redis      struct {
		Addr     string `yaml:"addr" default:"localhost:6379" env:"CREDIT_REDIS_ADDR"`
		Password string `yaml:"password" env:"CREDIT_REDIS_PASSWORD"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"credit"`
		PoolSize int    `yaml:"pool_size" default:"10"`
	} `yaml:"redis"`
}

type RateLimitConfig struct {
	Enabled         bool    `yaml:"enabled" default:"true"`
	Capacity        float64 `yaml:"capacity" default:"20"`
	RefillPerSecond float64 `yaml:"refill_per_second" default:"10"`
}

type AuditConfig struct {
	Backend      string        `yaml:"backend" default:"none" env:"CREDIT_AUDIT_BACKEND"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
	BufferSize   int           `yaml:"buffer_size" default:"1000"`
	MaxRetries   int           `yaml:"max_retries" default:"3"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers" default:"[\"localhost:9092\"]" env:"CREDIT_KAFKA_BROKERS"`
	ResultsTopic      string   `yaml:"results_topic" default:"credit.scores"`
	ApplicationsTopic string   `yaml:"applications_topic" default:"credit.applications"`
	AuditTopic        string   `yaml:"audit_topic" default:"credit.audit"`
	LogTopic          string   `yaml:"log_topic" default:"credit.logs"`
	RequiredAcks      int      `yaml:"required_acks" default:"-1"`
	Compression       string   `yaml:"compression" default:"snappy"`
	Producer          struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		Enabled     bool          `yaml:"enabled" env:"CREDIT_KAFKA_CONSUMER_ENABLED"`
		GroupID     string        `yaml:"group_id" default:"credit-scorer"`
		StartOffset string        `yaml:"start_offset" default:"earliest"`
		Workers     int           `yaml:"workers" default:"4"`
		BufferSize  int           `yaml:"buffer_size" default:"100"`
		RetryMax    int           `yaml:"retry_max" default:"2"`
		BackoffMin  time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax  time.Duration `yaml:"backoff_max" default:"2s"`
		DLQTopic    string        `yaml:"dlq_topic" default:"credit.applications.dlq"`
		MinBytes    int           `yaml:"min_bytes" default:"1"`
		MaxBytes    int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
}

type ClickHouse struct {
	Host             string        `yaml:"host" default:"localhost" env:"CREDIT_CLICKHOUSE_HOST"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"credit"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password" env:"CREDIT_CLICKHOUSE_PASSWORD"`
	Table            string        `yaml:"table" default:"score_audit"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert" default:"true"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	MaxOpenConns     int           `yaml:"max_open_conns" default:"10"`
}

// Default returns a config populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with CREDIT_* variables.
// A .env file in the working directory, if present, is loaded first and never
// overrides variables already set in the environment.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(nil); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// applyEnv overrides fields tagged with env from environ, or from the process
// environment when environ is nil.
func (c *Config) applyEnv(environ map[string]string) error {
	if err := env.ParseWithOptions(c, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch c.Model.Backend {
	case "http":
		if c.Model.ServiceURL == "" {
			return fmt.Errorf("model.service_url is required for the http backend")
		}
	case "scorecard":
		if c.Model.ArtifactPath == "" {
			return fmt.Errorf("model.artifact_path is required for the scorecard backend")
		}
	default:
		return fmt.Errorf("model.backend must be 'http' or 'scorecard', got '%s'", c.Model.Backend)
	}
	if c.Model.Version == "" {
		return fmt.Errorf("model.version is required")
	}

	switch c.Cache.Backend {
	case "memory", "redis", "layered", "none":
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, layered, none; got '%s'", c.Cache.Backend)
	}

	switch c.Audit.Backend {
	case "kafka", "clickhouse", "none":
	default:
		return fmt.Errorf("audit.backend must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Audit.Backend)
	}

	if c.NeedsKafka() && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity <= 0 || c.RateLimit.RefillPerSecond <= 0) {
		return fmt.Errorf("rate_limit.capacity and rate_limit.refill_per_second must be positive")
	}
	return nil
}

// NeedsKafka reports whether any enabled component talks to Kafka.
func (c *Config) NeedsKafka() bool {
	return c.Audit.Backend == "kafka" || c.Kafka.Consumer.Enabled || c.Logging.Collector.Enabled
}
