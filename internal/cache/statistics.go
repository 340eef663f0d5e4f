package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vadim/asset-qc/internal/domain/asset/entity"
)

const (
	statisticsKey           = "asset-qc:qc_statistics"
	statisticsGenerationKey = "asset-qc:qc_statistics:gen"
)

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
	Incr(context.Context, string) *redis.IntCmd
}

// statisticsEntry is the stored snapshot tagged with the generation it was computed under
type statisticsEntry struct {
	Generation int64               `json:"generation"`
	Stats      entity.QCStatistics `json:"stats"`
}

// StatisticsCache keeps the latest QC statistics snapshot in Redis.
// Every invalidation bumps a generation counter; a snapshot only counts as
// a hit while its generation matches the counter.
type StatisticsCache struct {
	store cmdable
	ttl   time.Duration
}

// NewStatisticsCache creates a statistics cache on top of a redis client
func NewStatisticsCache(client *redis.Client, ttl time.Duration) *StatisticsCache {
	return &StatisticsCache{store: client, ttl: ttl}
}

// Get returns the cached snapshot and the current generation. The bool is
// false on a miss; a fresh snapshot should then be stored under the
// returned generation.
func (c *StatisticsCache) Get(ctx context.Context) (*entity.QCStatistics, int64, bool, error) {
	gen, err := c.store.Get(ctx, statisticsGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("getting statistics generation: %w", err)
	}

	raw, err := c.store.Get(ctx, statisticsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("getting cached statistics: %w", err)
	}

	var entry statisticsEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, 0, false, fmt.Errorf("decoding cached statistics: %w", err)
	}
	if entry.Generation != gen {
		return nil, gen, false, nil
	}
	return &entry.Stats, gen, true, nil
}

// Set stores the snapshot for the configured TTL under generation.
// A snapshot written after a later Invalidate is never served.
func (c *StatisticsCache) Set(ctx context.Context, stats *entity.QCStatistics, generation int64) error {
	raw, err := json.Marshal(statisticsEntry{Generation: generation, Stats: *stats})
	if err != nil {
		return fmt.Errorf("encoding statistics: %w", err)
	}
	if err := c.store.Set(ctx, statisticsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching statistics: %w", err)
	}
	return nil
}

// Invalidate bumps the generation and drops the cached snapshot
func (c *StatisticsCache) Invalidate(ctx context.Context) error {
	if err := c.store.Incr(ctx, statisticsGenerationKey).Err(); err != nil {
		return fmt.Errorf("bumping statistics generation: %w", err)
	}
	if err := c.store.Del(ctx, statisticsKey).Err(); err != nil {
		return fmt.Errorf("invalidating statistics: %w", err)
	}
	return nil
}
