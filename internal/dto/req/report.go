package req

type UsageReportRequest struct {
	StartDate  string `form:"startDate" binding:"required"`
	EndDate    string `form:"endDate" binding:"required"`
	ProjectID  uint64 `form:"projectId"`
	FeatureKey string `form:"featureKey"`
}
