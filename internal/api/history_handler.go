package api

import (
	"net/http"
	"strconv"
	"togglehub/internal/repository"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	history repository.HistoryInterface
}

func NewHistoryHandler(history repository.HistoryInterface) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) ListHistory(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.history.List(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "entries": entries})
}

func (h *HistoryHandler) ListFeatureHistory(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feature id"})
		return
	}

	entries, err := h.history.ListByFeature(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}
