package api

import (
	"net/http"
	"time"
	"togglehub/internal/dto/req"
	"togglehub/internal/repository"
	"togglehub/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// UsageReport aggregates evaluation counts per project and feature for the
// operator's company over a date range. Both dates are inclusive calendar
// days; the end date is extended to the end of its day.
func (h *ReportHandler) UsageReport(c *gin.Context) {
	var r req.UsageReportRequest
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate and endDate are required"})
		return
	}

	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate, expected YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate, expected YYYY-MM-DD"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must not precede startDate"})
		return
	}
	end = end.Add(24*time.Hour - time.Nanosecond)

	operator := service.GetOperatorInfo(c.Request.Context())
	rows, err := h.svc.UsageReport(c.Request.Context(), operator.CompanyID, start, end, repository.UsageFilter{
		ProjectID:  r.ProjectID,
		FeatureKey: r.FeatureKey,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}
