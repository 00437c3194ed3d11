package middleware

import (
	"errors"
	"togglehub/internal/repository"
	"togglehub/internal/service"

	"github.com/gin-gonic/gin"
)

func APIKeyMiddleware(projects repository.ProjectInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-Api-Key")
		if apiKey == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing API key"})
			return
		}

		project, err := projects.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			if errors.Is(err, repository.ErrProjectNotFound) {
				c.AbortWithStatusJSON(403, gin.H{"error": "forbidden"})
				return
			}
			c.AbortWithStatusJSON(500, gin.H{"error": "internal error"})
			return
		}

		ctx := service.WithCallerProject(c.Request.Context(), &service.CallerProject{
			ProjectID: project.ID,
			CompanyID: project.CompanyID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
