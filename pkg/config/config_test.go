package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, c.Server.CORSOrigins)
	assert.Equal(t, "scorecard", c.Model.Backend)
	assert.Equal(t, "memory", c.Cache.Backend)
	assert.Equal(t, "none", c.Audit.Backend)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.Equal(t, "score_audit", c.ClickHouse.Table)
	assert.True(t, c.Metrics.Enabled)
	assert.False(t, c.NeedsKafka())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9090
model:
  backend: http
  service_url: http://model:5000
  timeout: 750ms
encoding:
  fallbacks:
    savings: A61
audit:
  backend: kafka
metrics:
  enabled: false
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.WriteTimeout)
	assert.Equal(t, "http://model:5000", c.Model.ServiceURL)
	assert.Equal(t, 750*time.Millisecond, c.Model.Timeout)
	assert.Equal(t, map[string]string{"savings": "A61"}, c.Encoding.Fallbacks)
	assert.False(t, c.Metrics.Enabled)
	assert.True(t, c.NeedsKafka())
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]string{
		"bad model backend":  "model:\n  backend: onnx\n",
		"http without url":   "model:\n  backend: http\n",
		"bad cache backend":  "cache:\n  backend: memcached\n",
		"bad audit backend":  "audit:\n  backend: s3\n",
		"bad port":           "server:\n  port: 70000\n",
		"kafka w/o brokers":  "audit:\n  backend: kafka\nkafka:\n  brokers: []\n",
		"zero rate capacity": "rate_limit:\n  capacity: 0\n  refill_per_second: 0\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	env := map[string]string{
		"CREDIT_PORT":          "8081",
		"CREDIT_MODEL_BACKEND": "http",
		"CREDIT_KAFKA_BROKERS": "k1:9092,k2:9092",
		"CREDIT_AUDIT_BACKEND": "clickhouse",
	}
	require.NoError(t, c.applyEnv(env))

	assert.Equal(t, 8081, c.Server.Port)
	assert.Equal(t, "http", c.Model.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "clickhouse", c.Audit.Backend)

	err = c.applyEnv(map[string]string{"CREDIT_PORT": "eighty"})
	assert.Error(t, err)
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("CREDIT_ENV", "staging")
	t.Setenv("CREDIT_MODEL_BACKEND", "http")
	t.Setenv("CREDIT_MODEL_SERVICE_URL", "http://m:1")

	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, "http://m:1", c.Model.ServiceURL)
}

func TestModelDisplayType(t *testing.T) {
	assert.Equal(t, "Logistic scorecard", ModelConfig{Backend: "scorecard"}.DisplayType())
	assert.Equal(t, "Random Forest", ModelConfig{Backend: "http"}.DisplayType())
	assert.Equal(t, "Gradient Boosting", ModelConfig{Backend: "http", Type: "Gradient Boosting"}.DisplayType())
}
