package api

import (
	"errors"
	"net/http"
	"togglehub/internal/dto/resp"
	"togglehub/internal/repository"
	"togglehub/internal/service"
	"togglehub/pkg/flageval"

	"github.com/gin-gonic/gin"
)

type CheckHandler struct {
	eval *service.EvalService
}

func NewCheckHandler(eval *service.EvalService) *CheckHandler {
	return &CheckHandler{eval: eval}
}

// Check evaluates a feature for the calling project. The request body is the
// evaluation context: an arbitrary flat JSON object matched against the
// feature's stored conditions. An empty body evaluates against no attributes.
func (h *CheckHandler) Check(c *gin.Context) {
	featureKey := c.Param("feature_key")
	if featureKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feature key required"})
		return
	}

	caller := service.GetCallerProject(c.Request.Context())
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	evalCtx := flageval.Context{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&evalCtx); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
			return
		}
	}

	value, err := h.eval.Check(c.Request.Context(), caller.ProjectID, featureKey, evalCtx)
	if err != nil {
		if errors.Is(err, repository.ErrFeatureNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feature not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, resp.CheckFeatureResponse{Value: value})
}
