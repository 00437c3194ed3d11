package api

import (
	"errors"
	"net/http"
	"togglehub/internal/dto/req"
	"togglehub/internal/dto/resp"
	"togglehub/internal/repository"
	"togglehub/internal/service"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var r req.CreateProjectRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	project, err := h.svc.Create(c.Request.Context(), r.Name, r.Description, operator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp.CreateProjectResponse{ProjectID: project.ID, APIKey: project.APIKey})
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	operator := service.GetOperatorInfo(c.Request.Context())
	projects, err := h.svc.List(c.Request.Context(), operator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	project, err := h.svc.Get(c.Request.Context(), id, operator)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		case errors.Is(err, service.ErrForbiddenProject):
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, project)
}
