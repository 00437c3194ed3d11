package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"togglehub/internal/metrics"
	"togglehub/internal/model"
	"togglehub/internal/repository"
	"togglehub/pkg/flageval"
	"togglehub/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EvalService is the single evaluation path: it resolves a feature by key,
// runs the shared condition evaluator, and hands the outcome to the usage
// recorder without waiting for it.
type EvalService struct {
	features repository.FeatureInterface
	recorder *UsageRecorder
	observer metrics.EvalObserver
}

func NewEvalService(features repository.FeatureInterface, recorder *UsageRecorder, observer metrics.EvalObserver) *EvalService {
	return &EvalService{
		features: features,
		recorder: recorder,
		observer: observer,
	}
}

// Check evaluates featureKey for the calling project against evalCtx.
// Storage errors resolving the feature propagate; nothing that happens after
// the boolean is computed can change or fail the result.
func (s *EvalService) Check(ctx context.Context, projectID uint64, featureKey string, evalCtx flageval.Context) (bool, error) {
	feature, err := s.features.GetByKey(ctx, projectID, featureKey)
	if err != nil {
		return false, err
	}

	conditions := parseStoredConditions(feature.FeatureKey, feature.Conditions)
	enabled := flageval.Evaluate(conditions, evalCtx)
	s.observer.RecordEvaluation(enabled)

	rawCtx, err := json.Marshal(evalCtx)
	if err != nil {
		// Context came off the wire as JSON, so this should not happen;
		// record the evaluation anyway with an empty context.
		logger.Warn("failed to marshal evaluation context", zap.Error(err))
		rawCtx = []byte("{}")
	}

	s.recorder.Enqueue(model.UsageLog{
		FeatureID:     feature.ID,
		ProjectID:     feature.ProjectID,
		Context:       string(rawCtx),
		Enabled:       enabled,
		CorrelationID: uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
	})

	return enabled, nil
}

// parseStoredConditions decodes the persisted condition list. The column may
// hold a JSON array, a doubly-encoded JSON string, or garbage from an older
// writer. Anything unparseable degrades to "no conditions" (feature enabled):
// availability of the evaluation decision wins over strictness, and the
// broken configuration is logged for operators instead.
func parseStoredConditions(featureKey, raw string) []flageval.Condition {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}

	var conditions []flageval.Condition
	if err := json.Unmarshal([]byte(raw), &conditions); err == nil {
		return conditions
	}

	// Older writers stored the list as a JSON-encoded string.
	var nested string
	if err := json.Unmarshal([]byte(raw), &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &conditions); err == nil {
			return conditions
		}
	}

	logger.Warn("stored feature conditions are not parseable, treating as empty",
		zap.String("feature_key", featureKey))
	return nil
}
