package resp

type CheckFeatureResponse struct {
	Value bool `json:"value"`
}

type CreateFeatureResponse struct {
	FeatureID uint64 `json:"feature_id"`
}

type CreateProjectResponse struct {
	ProjectID uint64 `json:"project_id"`
	APIKey    string `json:"api_key"`
}
