package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetbook/api/internal/middleware"
)

func (h HandlerSet) Me(c *gin.Context) {
	payload, exists := middleware.CurrentPayload(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userService.Me(c.Request.Context(), payload.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	ok(c, userResponse{ID: user.ID, DisplayName: user.DisplayName, Status: string(user.Status)})
}

type updateUserRequest struct {
	DisplayName string `json:"displayName" binding:"required,max=24"`
}

func (h HandlerSet) UpdateMe(c *gin.Context) {
	payload, exists := middleware.CurrentPayload(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateDisplayName(c.Request.Context(), payload.UserID, req.DisplayName)
	if err != nil {
		h.fail(c, err)
		return
	}

	ok(c, userResponse{ID: user.ID, DisplayName: user.DisplayName, Status: string(user.Status)})
}
