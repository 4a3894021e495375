package classifier

import (
	"context"
	"encoding/json"
	"time"

	"CreditScore/internal/domain/models"
	domsvc "CreditScore/internal/domain/service"
	icache "CreditScore/internal/service/cache"
	applogger "CreditScore/pkg/logger"
)

// Cached memoizes classifier outputs per model version and row content.
// Cache errors are logged and bypassed; they never change a result.
type Cached struct {
	next    domsvc.Classifier
	cache   icache.BytesCache
	version string
	ttl     time.Duration
	l       *applogger.Logger
}

func NewCached(next domsvc.Classifier, cache icache.BytesCache, version string, ttl time.Duration, l *applogger.Logger) *Cached {
	if l == nil {
		l = applogger.Nop()
	}
	return &Cached{next: next, cache: cache, version: version, ttl: ttl, l: l}
}

func (c *Cached) key(op string, row models.FeatureRow) (string, bool) {
	b, err := json.Marshal(row)
	if err != nil {
		return "", false
	}
	return icache.Key("clf", c.version, op, icache.HashKey(b)), true
}

func (c *Cached) lookup(ctx context.Context, key string, dest interface{}) bool {
	b, ok, err := c.cache.GetBytes(ctx, key)
	if err != nil {
		c.l.Warn("classifier cache_get_error", applogger.String("key", key), applogger.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		c.l.Warn("classifier cache_decode_error", applogger.String("key", key), applogger.Error(err))
		return false
	}
	c.l.Debug("classifier cache_hit", applogger.String("key", key))
	return true
}

func (c *Cached) store(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.SetBytes(ctx, key, b, c.ttl); err != nil {
		c.l.Warn("classifier cache_set_error", applogger.String("key", key), applogger.Error(err))
	}
}

func (c *Cached) Predict(ctx context.Context, row models.FeatureRow) (int, error) {
	key, ok := c.key("predict", row)
	if !ok {
		return c.next.Predict(ctx, row)
	}
	var class int
	if c.lookup(ctx, key, &class) {
		return class, nil
	}
	class, err := c.next.Predict(ctx, row)
	if err != nil {
		return 0, err
	}
	c.store(ctx, key, class)
	return class, nil
}

func (c *Cached) PredictProba(ctx context.Context, row models.FeatureRow) ([]float64, error) {
	key, ok := c.key("proba", row)
	if !ok {
		return c.next.PredictProba(ctx, row)
	}
	var proba []float64
	if c.lookup(ctx, key, &proba) {
		return proba, nil
	}
	proba, err := c.next.PredictProba(ctx, row)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, proba)
	return proba, nil
}

var _ domsvc.Classifier = (*Cached)(nil)
