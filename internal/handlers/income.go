package handlers

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"budgetbook/api/internal/models"
	"budgetbook/api/internal/service"
)

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

type recordRequest struct {
	CategoryID  string    `json:"categoryId" binding:"required"`
	Description string    `json:"description"`
	Amount      string    `json:"amount" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
}

func (r recordRequest) toInput() service.RecordInput {
	return service.RecordInput{
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Amount:      r.Amount,
		Date:        r.Date,
	}
}

type incomeResponse struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount"`
	Date        time.Time `json:"date"`
}

func toIncomeResponse(income models.Income) incomeResponse {
	return incomeResponse{
		ID:          income.ID,
		CategoryID:  income.CategoryID,
		Description: income.Description,
		Amount:      income.Amount,
		Date:        income.Date,
	}
}

func bindRecord(c *gin.Context) (recordRequest, bool) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return recordRequest{}, false
	}
	if !amountPattern.MatchString(req.Amount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a decimal with up to two digits"})
		return recordRequest{}, false
	}
	return req, true
}

func (h HandlerSet) CreateIncome(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}
	req, valid := bindRecord(c)
	if !valid {
		return
	}

	income, err := h.incomeService.Create(c.Request.Context(), payload.UserID, req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, toIncomeResponse(income))
}

func (h HandlerSet) ListIncomes(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	incomes, err := h.incomeService.List(c.Request.Context(), payload.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]incomeResponse, 0, len(incomes))
	for _, income := range incomes {
		resp = append(resp, toIncomeResponse(income))
	}
	ok(c, resp)
}

func (h HandlerSet) GetIncome(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	income, err := h.incomeService.Get(c.Request.Context(), payload.UserID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, toIncomeResponse(income))
}

func (h HandlerSet) UpdateIncome(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}
	req, valid := bindRecord(c)
	if !valid {
		return
	}

	income, err := h.incomeService.Update(c.Request.Context(), payload.UserID, c.Param("id"), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, toIncomeResponse(income))
}

func (h HandlerSet) DeleteIncome(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	if err := h.incomeService.Delete(c.Request.Context(), payload.UserID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": true})
}
