package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/reorder-replay/internal/config"
	"github.com/andresuchdata/reorder-replay/internal/domain"
)

const (
	resultKeyPrefix  = "simulation:result:"
	requestKeyPrefix = "simulation:request:"
	scanBatchSize    = 100
)

// SimulationResultCache stores completed replay results so identical requests
// within the TTL window skip the full day-by-day run.
type SimulationResultCache interface {
	GetResult(ctx context.Context, runID string) (*domain.SimulationResult, bool, error)
	GetByRequest(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, bool, error)
	SetResult(ctx context.Context, req domain.SimulationRequest, result *domain.SimulationResult) error
	InvalidateAll(ctx context.Context) error
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopResultCache struct{}

// NewResultCache returns a redis-backed cache, or a noop one when caching is
// disabled.
func NewResultCache(cfg config.CacheConfig) (SimulationResultCache, error) {
	if !cfg.Enabled {
		return &noopResultCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisResultCache{client: client, ttl: ttl}, nil
}

func NewNoopResultCache() SimulationResultCache {
	return &noopResultCache{}
}

func (c *redisResultCache) GetResult(ctx context.Context, runID string) (*domain.SimulationResult, bool, error) {
	payload, err := c.client.Get(ctx, resultKeyPrefix+runID).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.SimulationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("corrupt cached result: %w", err)
	}
	return &result, true, nil
}

func (c *redisResultCache) GetByRequest(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, bool, error) {
	runID, err := c.client.Get(ctx, requestKeyPrefix+buildRequestKey(req)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return c.GetResult(ctx, runID)
}

func (c *redisResultCache) SetResult(ctx context.Context, req domain.SimulationRequest, result *domain.SimulationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, resultKeyPrefix+result.RunID.String(), payload, c.ttl)
	pipe.Set(ctx, requestKeyPrefix+buildRequestKey(req), result.RunID.String(), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisResultCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, resultKeyPrefix, scanBatchSize); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, requestKeyPrefix, scanBatchSize)
}

// buildRequestKey hashes the request into a stable cache key. Item order must
// not matter, so IDs are sorted before hashing.
func buildRequestKey(req domain.SimulationRequest) string {
	items := append([]string(nil), req.ItemIDs...)
	sort.Strings(items)

	parts := []string{
		fmt.Sprintf("tenant=%d", req.TenantID),
		"start=" + req.StartDate.Format("2006-01-02"),
		"end=" + req.EndDate.Format("2006-01-02"),
		"items=" + strings.Join(items, ","),
		fmt.Sprintf("auto=%t", req.Policy.AutoPlaceOrders),
		fmt.Sprintf("buffer=%d", req.Policy.LeadTimeBufferDays),
		fmt.Sprintf("moq=%d", req.Policy.MinOrderQuantity),
		fmt.Sprintf("sl=%g", req.Policy.ServiceLevel),
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(sum[:])
}

func (n *noopResultCache) GetResult(context.Context, string) (*domain.SimulationResult, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) GetByRequest(context.Context, domain.SimulationRequest) (*domain.SimulationResult, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) SetResult(context.Context, domain.SimulationRequest, *domain.SimulationResult) error {
	return nil
}

func (n *noopResultCache) InvalidateAll(context.Context) error {
	return nil
}
