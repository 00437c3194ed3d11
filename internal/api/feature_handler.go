package api

import (
	"errors"
	"net/http"
	"strconv"
	"togglehub/internal/dto/req"
	"togglehub/internal/dto/resp"
	"togglehub/internal/repository"
	"togglehub/internal/service"

	"github.com/gin-gonic/gin"
)

type FeatureHandler struct {
	svc *service.FeatureService
}

func NewFeatureHandler(svc *service.FeatureService) *FeatureHandler {
	return &FeatureHandler{svc: svc}
}

func (h *FeatureHandler) CreateFeature(c *gin.Context) {
	var r req.CreateFeatureRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	feature, err := h.svc.Create(c.Request.Context(), service.FeatureInput{
		ProjectID:   r.ProjectID,
		FeatureKey:  r.FeatureKey,
		Description: r.Description,
		Conditions:  r.Conditions,
		State:       r.State,
	}, operator)
	if err != nil {
		writeFeatureError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.CreateFeatureResponse{FeatureID: feature.ID})
}

func (h *FeatureHandler) GetFeature(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feature id"})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	feature, err := h.svc.Get(c.Request.Context(), id, operator)
	if err != nil {
		writeFeatureError(c, err)
		return
	}
	c.JSON(http.StatusOK, feature)
}

func (h *FeatureHandler) ListFeatures(c *gin.Context) {
	projectID, err := parseID(c.Query("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	features, err := h.svc.ListByProject(c.Request.Context(), projectID, operator)
	if err != nil {
		writeFeatureError(c, err)
		return
	}
	c.JSON(http.StatusOK, features)
}

func (h *FeatureHandler) UpdateFeature(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feature id"})
		return
	}

	var r req.UpdateFeatureRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	feature, err := h.svc.Update(c.Request.Context(), id, service.FeatureUpdate{
		Description: r.Description,
		Conditions:  r.Conditions,
		State:       r.State,
	}, operator)
	if err != nil {
		writeFeatureError(c, err)
		return
	}
	c.JSON(http.StatusOK, feature)
}

func (h *FeatureHandler) DeleteFeature(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feature id"})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	if err := h.svc.Delete(c.Request.Context(), id, operator); err != nil {
		writeFeatureError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func writeFeatureError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrFeatureNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "feature not found"})
	case errors.Is(err, repository.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	case errors.Is(err, service.ErrForbiddenProject):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseID(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}
