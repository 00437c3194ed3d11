package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"togglehub/internal/metrics"
	"togglehub/internal/repository"
	"togglehub/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reportKeyPrefix = "togglehub:report:usage:"

var (
	// ErrCacheUnavailable means the cache store itself failed; distinct from
	// ErrReportQuery so operators can tell a Redis outage from a bad
	// aggregation. Both surface to the report caller.
	ErrCacheUnavailable = errors.New("report cache unavailable")
	ErrReportQuery      = errors.New("usage report query failed")
)

// ReportCache is the read-through cache over report payloads. Implementations
// return ErrCacheMiss when the key is absent.
type ReportCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, payload string, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("cache miss")

// RedisReportCache backs ReportCache with Redis.
type RedisReportCache struct {
	rdb *redis.Client
}

func NewRedisReportCache(rdb *redis.Client) *RedisReportCache {
	return &RedisReportCache{rdb: rdb}
}

func (c *RedisReportCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key, payload string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, payload, ttl).Err()
}

// ReportService answers usage-report queries with a read-through cache.
// Identical (company, startDate, endDate) requests inside the TTL return the
// cached payload without touching the aggregation store. Filtered requests
// bypass the cache entirely.
type ReportService struct {
	usage    repository.UsageInterface
	cache    ReportCache
	observer metrics.EvalObserver
	ttl      time.Duration
}

func NewReportService(usage repository.UsageInterface, cache ReportCache, observer metrics.EvalObserver, ttl time.Duration) *ReportService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReportService{
		usage:    usage,
		cache:    cache,
		observer: observer,
		ttl:      ttl,
	}
}

// UsageReport aggregates usage counts grouped by (project name, feature key)
// for the caller's company within [start, end]. Cache failures and query
// failures are surfaced as distinct errors; neither is papered over with
// stale data.
func (s *ReportService) UsageReport(ctx context.Context, companyID uint64, start, end time.Time, filter repository.UsageFilter) ([]repository.UsageReportRow, error) {
	cacheable := filter == (repository.UsageFilter{})
	key := reportCacheKey(companyID, start, end)

	if cacheable {
		payload, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var rows []repository.UsageReportRow
			if jsonErr := json.Unmarshal([]byte(payload), &rows); jsonErr == nil {
				s.observer.RecordReportCacheHit()
				return rows, nil
			}
			// A corrupt entry is treated as a miss and overwritten below.
			logger.Warn("corrupt report cache entry", zap.String("key", key))
		case errors.Is(err, ErrCacheMiss):
			s.observer.RecordReportCacheMiss()
		default:
			return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
	}

	rows, err := s.usage.Aggregate(ctx, companyID, start, end, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportQuery, err)
	}
	if rows == nil {
		rows = []repository.UsageReportRow{}
	}

	if cacheable {
		payload, err := json.Marshal(rows)
		if err == nil {
			if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
			}
		}
	}

	return rows, nil
}

func reportCacheKey(companyID uint64, start, end time.Time) string {
	return fmt.Sprintf("%s%d:%s:%s", reportKeyPrefix, companyID,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}
