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

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) RegisterUser(c *gin.Context) {
	var r req.RegisterUserReq
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	user, err := h.svc.Register(c.Request.Context(), r.Email, r.Password, r.Role, operator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	companyID := uint64(0)
	if user.CompanyID != nil {
		companyID = *user.CompanyID
	}
	c.JSON(http.StatusCreated, resp.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: companyID,
	})
}

func (h *UserHandler) AssignCompany(c *gin.Context) {
	var r req.AssignCompanyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operator := service.GetOperatorInfo(c.Request.Context())
	if err := h.svc.AssignCompany(c.Request.Context(), r.UserID, r.CompanyID, operator); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "company assigned"})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	operator := service.GetOperatorInfo(c.Request.Context())
	users, err := h.svc.List(c.Request.Context(), operator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}
