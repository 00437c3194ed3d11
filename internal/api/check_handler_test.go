package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"togglehub/internal/metrics"
	"togglehub/internal/model"
	"togglehub/internal/repository"
	"togglehub/internal/service"
	"togglehub/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

type stubFeatureRepo struct {
	feature *model.Feature
}

func (s *stubFeatureRepo) Create(ctx context.Context, f *model.Feature) error { return nil }
func (s *stubFeatureRepo) GetByID(ctx context.Context, id uint64) (*model.Feature, error) {
	return nil, repository.ErrFeatureNotFound
}
func (s *stubFeatureRepo) GetByKey(ctx context.Context, projectID uint64, key string) (*model.Feature, error) {
	if s.feature == nil || s.feature.FeatureKey != key || s.feature.ProjectID != projectID {
		return nil, repository.ErrFeatureNotFound
	}
	return s.feature, nil
}
func (s *stubFeatureRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Feature, error) {
	return nil, nil
}
func (s *stubFeatureRepo) Update(ctx context.Context, f *model.Feature) error { return nil }
func (s *stubFeatureRepo) Delete(ctx context.Context, id uint64) error        { return nil }
func (s *stubFeatureRepo) WithTx(tx *gorm.DB) repository.FeatureInterface     { return s }

type stubUsageRepo struct{}

func (stubUsageRepo) Insert(ctx context.Context, record *model.UsageLog) error { return nil }
func (stubUsageRepo) Aggregate(ctx context.Context, companyID uint64, start, end time.Time, filter repository.UsageFilter) ([]repository.UsageReportRow, error) {
	return nil, nil
}

func newCheckRouter(t *testing.T, feature *model.Feature, caller *service.CallerProject) *gin.Engine {
	t.Helper()

	recorder := service.NewUsageRecorder(stubUsageRepo{}, metrics.NoopObserver{}, 16, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go recorder.Run(ctx)

	eval := service.NewEvalService(&stubFeatureRepo{feature: feature}, recorder, metrics.NoopObserver{})
	handler := NewCheckHandler(eval)

	r := gin.New()
	r.POST("/v1/check/:feature_key", func(c *gin.Context) {
		if caller != nil {
			c.Request = c.Request.WithContext(service.WithCallerProject(c.Request.Context(), caller))
		}
		handler.Check(c)
	})
	return r
}

func TestCheckHandler_Enabled(t *testing.T) {
	feature := &model.Feature{
		ID:         1,
		ProjectID:  3,
		FeatureKey: "new_checkout",
		Conditions: `[{"field":"country","operator":"equals","value":"uy"}]`,
	}
	r := newCheckRouter(t, feature, &service.CallerProject{ProjectID: 3, CompanyID: 1})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/check/new_checkout", strings.NewReader(`{"country":"uy"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if value, ok := body["value"]; !ok || !value {
		t.Errorf(`expected {"value":true}, got %s`, w.Body.String())
	}
}

func TestCheckHandler_Disabled(t *testing.T) {
	feature := &model.Feature{
		ID:         1,
		ProjectID:  3,
		FeatureKey: "new_checkout",
		Conditions: `[{"field":"country","operator":"equals","value":"uy"}]`,
	}
	r := newCheckRouter(t, feature, &service.CallerProject{ProjectID: 3, CompanyID: 1})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/check/new_checkout", strings.NewReader(`{"country":"ar"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"value":false`) {
		t.Errorf("expected value false, got %s", w.Body.String())
	}
}

func TestCheckHandler_EmptyBody(t *testing.T) {
	feature := &model.Feature{ID: 1, ProjectID: 3, FeatureKey: "open_gate", Conditions: "[]"}
	r := newCheckRouter(t, feature, &service.CallerProject{ProjectID: 3, CompanyID: 1})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/check/open_gate", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty body, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"value":true`) {
		t.Errorf("feature without conditions must be enabled, got %s", w.Body.String())
	}
}

func TestCheckHandler_NotFound(t *testing.T) {
	r := newCheckRouter(t, nil, &service.CallerProject{ProjectID: 3, CompanyID: 1})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/check/missing", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCheckHandler_WrongProjectScope(t *testing.T) {
	feature := &model.Feature{ID: 1, ProjectID: 3, FeatureKey: "new_checkout", Conditions: "[]"}
	// Caller authenticated for a different project: key resolution must miss.
	r := newCheckRouter(t, feature, &service.CallerProject{ProjectID: 9, CompanyID: 1})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/check/new_checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for out-of-scope feature, got %d", w.Code)
	}
}

func TestCheckHandler_MalformedBody(t *testing.T) {
	feature := &model.Feature{ID: 1, ProjectID: 3, FeatureKey: "new_checkout", Conditions: "[]"}
	r := newCheckRouter(t, feature, &service.CallerProject{ProjectID: 3, CompanyID: 1})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/check/new_checkout", strings.NewReader(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestCheckHandler_MissingCaller(t *testing.T) {
	feature := &model.Feature{ID: 1, ProjectID: 3, FeatureKey: "new_checkout", Conditions: "[]"}
	r := newCheckRouter(t, feature, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/check/new_checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without resolved project, got %d", w.Code)
	}
}
