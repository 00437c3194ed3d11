package req

import "togglehub/pkg/flageval"

type CreateFeatureRequest struct {
	ProjectID   uint64               `json:"project_id" binding:"required"`
	FeatureKey  string               `json:"feature_key" binding:"required"`
	Description string               `json:"description" binding:"required"`
	Conditions  []flageval.Condition `json:"conditions"`
	State       string               `json:"state" binding:"required,oneof=on off"`
}

type UpdateFeatureRequest struct {
	Description string               `json:"description" binding:"required"`
	Conditions  []flageval.Condition `json:"conditions"`
	State       string               `json:"state" binding:"required,oneof=on off"`
}
