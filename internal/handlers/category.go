package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgetbook/api/internal/middleware"
	"budgetbook/api/internal/models"
	"budgetbook/api/internal/security"
	"budgetbook/api/internal/service"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type" binding:"required,oneof=INCOME EXPENSE"`
}

type updateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Preset      bool      `json:"preset"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toCategoryResponse(category models.Category) categoryResponse {
	return categoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Type:        string(category.Type),
		Preset:      category.UserID == nil,
		CreatedAt:   category.CreatedAt,
	}
}

func requirePayload(c *gin.Context) (security.TokenPayload, bool) {
	payload, exists := middleware.CurrentPayload(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return security.TokenPayload{}, false
	}
	return payload, true
}

func (h HandlerSet) CreateCategory(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), payload.UserID, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        models.CategoryType(req.Type),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	ok(c, toCategoryResponse(category))
}

func (h HandlerSet) ListCategories(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	categories, err := h.categoryService.List(c.Request.Context(), payload.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		resp = append(resp, toCategoryResponse(category))
	}
	ok(c, resp)
}

func (h HandlerSet) GetCategory(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	category, err := h.categoryService.Get(c.Request.Context(), payload.UserID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	ok(c, toCategoryResponse(category))
}

func (h HandlerSet) UpdateCategory(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), payload.UserID, c.Param("id"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	ok(c, toCategoryResponse(category))
}

func (h HandlerSet) DeleteCategory(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), payload.UserID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	ok(c, gin.H{"deleted": true})
}
