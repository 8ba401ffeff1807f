package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
)

// ExplanationCache is a two-tier cache for parameter explanations: an
// in-process LRU in front of an optional shared Redis tier. Explanations
// are keyed by canonical name, status, and trend only, so entries are
// shared across patients and carry no measured values.
type ExplanationCache struct {
	local  *lru.Cache[string, *domain.ExplainResponse]
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewExplanationCache creates the cache. redisClient may be nil, in
// which case only the local tier is used.
func NewExplanationCache(localSize int, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) (*ExplanationCache, error) {
	if localSize <= 0 {
		localSize = 512
	}

	local, err := lru.New[string, *domain.ExplainResponse](localSize)
	if err != nil {
		return nil, fmt.Errorf("creating local explanation cache: %w", err)
	}

	return &ExplanationCache{
		local:  local,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Get returns a cached explanation, consulting the local tier first.
// Redis hits are promoted into the local tier.
func (c *ExplanationCache) Get(ctx context.Context, req domain.ExplainRequest) (*domain.ExplainResponse, bool) {
	key := cacheKey(req)

	if resp, ok := c.local.Get(key); ok {
		return resp, true
	}

	if c.redis == nil {
		return nil, false
	}

	payload, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("Redis explanation lookup failed")
		}
		return nil, false
	}

	var resp domain.ExplainResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		c.logger.WithError(err).Warn("Corrupt cached explanation, dropping")
		c.redis.Del(ctx, key)
		return nil, false
	}

	c.local.Add(key, &resp)
	return &resp, true
}

// Set stores an explanation in both tiers. Redis write failures are
// logged and otherwise ignored; the local tier still serves.
func (c *ExplanationCache) Set(ctx context.Context, req domain.ExplainRequest, resp *domain.ExplainResponse) {
	key := cacheKey(req)
	c.local.Add(key, resp)

	if c.redis == nil {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal explanation for cache")
		return
	}

	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("Redis explanation store failed")
	}
}

// Len returns the local tier entry count.
func (c *ExplanationCache) Len() int {
	return c.local.Len()
}

func cacheKey(req domain.ExplainRequest) string {
	return "explain:" + strings.ToLower(req.ParameterName) + ":" + req.Status + ":" + req.Trend
}
