package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"togglehub/internal/metrics"
	"togglehub/internal/model"
	"togglehub/internal/repository"
)

type aggUsageRepo struct {
	rows  []repository.UsageReportRow
	err   error
	calls int
}

func (m *aggUsageRepo) Insert(ctx context.Context, record *model.UsageLog) error { return nil }

func (m *aggUsageRepo) Aggregate(ctx context.Context, companyID uint64, start, end time.Time, filter repository.UsageFilter) ([]repository.UsageReportRow, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type memReportCache struct {
	entries map[string]string
	getErr  error
	setErr  error
	sets    int
}

func newMemReportCache() *memReportCache {
	return &memReportCache{entries: map[string]string{}}
}

func (c *memReportCache) Get(ctx context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	val, ok := c.entries[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (c *memReportCache) Set(ctx context.Context, key, payload string, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.sets++
	c.entries[key] = payload
	return nil
}

var reportRows = []repository.UsageReportRow{
	{ProjectName: "atlas", FeatureKey: "dark_mode", UsageCount: 12},
	{ProjectName: "atlas", FeatureKey: "new_checkout", UsageCount: 40},
	{ProjectName: "zephyr", FeatureKey: "dark_mode", UsageCount: 3},
}

func reportRange(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start, _ := time.Parse("2006-01-02", "2026-08-01")
	end, _ := time.Parse("2006-01-02", "2026-08-31")
	return start, end
}

func TestUsageReport_CacheMissThenHit(t *testing.T) {
	start, end := reportRange(t)
	repo := &aggUsageRepo{rows: reportRows}
	cache := newMemReportCache()
	svc := NewReportService(repo, cache, metrics.NoopObserver{}, time.Hour)

	first, err := svc.UsageReport(context.Background(), 7, start, end, repository.UsageFilter{})
	if err != nil {
		t.Fatalf("first report failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(first))
	}
	if repo.calls != 1 {
		t.Fatalf("expected 1 aggregation, got %d", repo.calls)
	}

	second, err := svc.UsageReport(context.Background(), 7, start, end, repository.UsageFilter{})
	if err != nil {
		t.Fatalf("second report failed: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("cached report must not re-aggregate, got %d calls", repo.calls)
	}
	if len(second) != 3 || second[0] != first[0] {
		t.Errorf("cached payload differs: %+v", second)
	}
}

func TestUsageReport_FilteredRequestsBypassCache(t *testing.T) {
	start, end := reportRange(t)
	repo := &aggUsageRepo{rows: reportRows}
	cache := newMemReportCache()
	svc := NewReportService(repo, cache, metrics.NoopObserver{}, time.Hour)

	filter := repository.UsageFilter{FeatureKey: "dark_mode"}
	for i := 0; i < 2; i++ {
		if _, err := svc.UsageReport(context.Background(), 7, start, end, filter); err != nil {
			t.Fatalf("filtered report failed: %v", err)
		}
	}
	if repo.calls != 2 {
		t.Errorf("filtered reports must hit the store every time, got %d calls", repo.calls)
	}
	if cache.sets != 0 {
		t.Errorf("filtered reports must not populate the cache, got %d sets", cache.sets)
	}
}

func TestUsageReport_CacheUnavailable(t *testing.T) {
	start, end := reportRange(t)
	repo := &aggUsageRepo{rows: reportRows}
	cache := newMemReportCache()
	cache.getErr = errors.New("connection refused")
	svc := NewReportService(repo, cache, metrics.NoopObserver{}, time.Hour)

	_, err := svc.UsageReport(context.Background(), 7, start, end, repository.UsageFilter{})
	if !errors.Is(err, ErrCacheUnavailable) {
		t.Errorf("expected ErrCacheUnavailable, got %v", err)
	}
	if repo.calls != 0 {
		t.Errorf("cache outage must not silently fall through to the store")
	}
}

func TestUsageReport_QueryFailure(t *testing.T) {
	start, end := reportRange(t)
	repo := &aggUsageRepo{err: errors.New("bad join")}
	svc := NewReportService(repo, newMemReportCache(), metrics.NoopObserver{}, time.Hour)

	_, err := svc.UsageReport(context.Background(), 7, start, end, repository.UsageFilter{})
	if !errors.Is(err, ErrReportQuery) {
		t.Errorf("expected ErrReportQuery, got %v", err)
	}
	if errors.Is(err, ErrCacheUnavailable) {
		t.Error("query failure must be distinguishable from a cache outage")
	}
}

func TestUsageReport_CorruptCacheEntryIsRefreshed(t *testing.T) {
	start, end := reportRange(t)
	repo := &aggUsageRepo{rows: reportRows}
	cache := newMemReportCache()
	cache.entries[reportCacheKey(7, start, end)] = "{corrupt"
	svc := NewReportService(repo, cache, metrics.NoopObserver{}, time.Hour)

	rows, err := svc.UsageReport(context.Background(), 7, start, end, repository.UsageFilter{})
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected fresh rows, got %d", len(rows))
	}
	if repo.calls != 1 {
		t.Errorf("corrupt entry must be treated as a miss, got %d calls", repo.calls)
	}

	var cached []repository.UsageReportRow
	if err := json.Unmarshal([]byte(cache.entries[reportCacheKey(7, start, end)]), &cached); err != nil {
		t.Errorf("corrupt entry was not overwritten: %v", err)
	}
}

func TestUsageReport_EmptyResultIsNotNil(t *testing.T) {
	start, end := reportRange(t)
	svc := NewReportService(&aggUsageRepo{}, newMemReportCache(), metrics.NoopObserver{}, time.Hour)

	rows, err := svc.UsageReport(context.Background(), 7, start, end, repository.UsageFilter{})
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if rows == nil {
		t.Error("empty report must serialize as [], not null")
	}
}

func TestReportCacheKey(t *testing.T) {
	start, end := reportRange(t)
	got := reportCacheKey(42, start, end)
	want := "togglehub:report:usage:42:2026-08-01:2026-08-31"
	if got != want {
		t.Errorf("reportCacheKey = %q, want %q", got, want)
	}
}
