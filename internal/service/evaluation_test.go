package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"togglehub/internal/metrics"
	"togglehub/internal/model"
	"togglehub/internal/repository"
	"togglehub/pkg/flageval"
	"togglehub/pkg/logger"

	"gorm.io/gorm"
)

func init() {
	logger.InitLogger("test")
}

type mockFeatureRepo struct {
	features map[string]*model.Feature
	err      error
}

func (m *mockFeatureRepo) Create(ctx context.Context, f *model.Feature) error { return nil }
func (m *mockFeatureRepo) GetByID(ctx context.Context, id uint64) (*model.Feature, error) {
	return nil, repository.ErrFeatureNotFound
}
func (m *mockFeatureRepo) GetByKey(ctx context.Context, projectID uint64, key string) (*model.Feature, error) {
	if m.err != nil {
		return nil, m.err
	}
	f, ok := m.features[key]
	if !ok {
		return nil, repository.ErrFeatureNotFound
	}
	return f, nil
}
func (m *mockFeatureRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Feature, error) {
	return nil, nil
}
func (m *mockFeatureRepo) Update(ctx context.Context, f *model.Feature) error { return nil }
func (m *mockFeatureRepo) Delete(ctx context.Context, id uint64) error        { return nil }
func (m *mockFeatureRepo) WithTx(tx *gorm.DB) repository.FeatureInterface     { return m }

type mockUsageRepo struct {
	mu      sync.Mutex
	records []model.UsageLog
	err     error
}

func (m *mockUsageRepo) Insert(ctx context.Context, record *model.UsageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *mockUsageRepo) Aggregate(ctx context.Context, companyID uint64, start, end time.Time, filter repository.UsageFilter) ([]repository.UsageReportRow, error) {
	return nil, nil
}

func (m *mockUsageRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *mockUsageRepo) last() model.UsageLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[len(m.records)-1]
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func newEvalFixture(t *testing.T, features map[string]*model.Feature) (*EvalService, *mockUsageRepo, context.CancelFunc) {
	t.Helper()
	usage := &mockUsageRepo{}
	recorder := NewUsageRecorder(usage, metrics.NoopObserver{}, 16, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	go recorder.Run(ctx)

	svc := NewEvalService(&mockFeatureRepo{features: features}, recorder, metrics.NoopObserver{})
	return svc, usage, cancel
}

func waitForRecords(t *testing.T, usage *mockUsageRepo, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for usage.count() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d usage records, have %d", want, usage.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCheck_ConditionsMatch(t *testing.T) {
	conditions := mustJSON(t, []flageval.Condition{
		{Field: "country", Operator: "equals", Value: "uy"},
		{Field: "age", Operator: "greater", Value: 21},
	})
	svc, usage, cancel := newEvalFixture(t, map[string]*model.Feature{
		"new_checkout": {ID: 10, ProjectID: 1, FeatureKey: "new_checkout", Conditions: conditions},
	})
	defer cancel()

	enabled, err := svc.Check(context.Background(), 1, "new_checkout", flageval.Context{
		"country": "uy",
		"age":     "22",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !enabled {
		t.Error("expected enabled for matching context")
	}

	waitForRecords(t, usage, 1)
	record := usage.last()
	if !record.Enabled {
		t.Error("usage record should carry the computed result")
	}
	if record.FeatureID != 10 || record.ProjectID != 1 {
		t.Errorf("usage record mislabeled: %+v", record)
	}
	if record.CorrelationID == "" {
		t.Error("usage record missing correlation id")
	}

	var gotCtx map[string]any
	if err := json.Unmarshal([]byte(record.Context), &gotCtx); err != nil {
		t.Fatalf("usage context is not JSON: %v", err)
	}
	if gotCtx["country"] != "uy" {
		t.Errorf("usage context not preserved: %v", gotCtx)
	}
}

func TestCheck_ConditionsDoNotMatch(t *testing.T) {
	conditions := mustJSON(t, []flageval.Condition{
		{Field: "country", Operator: "equals", Value: "uy"},
	})
	svc, usage, cancel := newEvalFixture(t, map[string]*model.Feature{
		"new_checkout": {ID: 10, ProjectID: 1, FeatureKey: "new_checkout", Conditions: conditions},
	})
	defer cancel()

	enabled, err := svc.Check(context.Background(), 1, "new_checkout", flageval.Context{"country": "ar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enabled {
		t.Error("expected disabled for non-matching context")
	}

	waitForRecords(t, usage, 1)
	if usage.last().Enabled {
		t.Error("usage record should carry enabled=false")
	}
}

func TestCheck_FeatureNotFound(t *testing.T) {
	svc, usage, cancel := newEvalFixture(t, map[string]*model.Feature{})
	defer cancel()

	_, err := svc.Check(context.Background(), 1, "missing", nil)
	if !errors.Is(err, repository.ErrFeatureNotFound) {
		t.Errorf("expected ErrFeatureNotFound, got %v", err)
	}

	// No usage may be recorded for unresolved features.
	time.Sleep(50 * time.Millisecond)
	if usage.count() != 0 {
		t.Errorf("expected no usage records, got %d", usage.count())
	}
}

func TestCheck_StorageErrorPropagates(t *testing.T) {
	usage := &mockUsageRepo{}
	recorder := NewUsageRecorder(usage, metrics.NoopObserver{}, 16, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recorder.Run(ctx)

	boom := errors.New("connection refused")
	svc := NewEvalService(&mockFeatureRepo{err: boom}, recorder, metrics.NoopObserver{})

	_, err := svc.Check(context.Background(), 1, "any", nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected storage error to propagate, got %v", err)
	}
}

func TestParseStoredConditions(t *testing.T) {
	array := mustJSON(t, []flageval.Condition{{Field: "country", Operator: "equals", Value: "uy"}})
	doublyEncoded := mustJSON(t, array)

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty column", "", 0},
		{"null literal", "null", 0},
		{"json array", array, 1},
		{"doubly encoded string", doublyEncoded, 1},
		{"garbage degrades to empty", "{not json", 0},
		{"wrong shape degrades to empty", `{"field":"country"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseStoredConditions("k", tt.raw)
			if len(got) != tt.want {
				t.Errorf("parseStoredConditions(%q) = %d conditions, want %d", tt.raw, len(got), tt.want)
			}
		})
	}
}

// Malformed stored conditions must not block the evaluation: they read as an
// empty list, which evaluates to enabled.
func TestCheck_MalformedConditionsEvaluateEnabled(t *testing.T) {
	svc, _, cancel := newEvalFixture(t, map[string]*model.Feature{
		"broken": {ID: 11, ProjectID: 1, FeatureKey: "broken", Conditions: "{definitely-not-json"},
	})
	defer cancel()

	enabled, err := svc.Check(context.Background(), 1, "broken", flageval.Context{"anything": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !enabled {
		t.Error("malformed conditions must evaluate as enabled")
	}
}
