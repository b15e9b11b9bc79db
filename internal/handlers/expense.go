package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgetbook/api/internal/models"
)

type expenseResponse struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId"`
	Description string    `json:"description,omitempty"`
	Amount      string    `json:"amount"`
	Date        time.Time `json:"date"`
	HasReceipt  bool      `json:"hasReceipt"`
}

func toExpenseResponse(expense models.Expense) expenseResponse {
	return expenseResponse{
		ID:          expense.ID,
		CategoryID:  expense.CategoryID,
		Description: expense.Description,
		Amount:      expense.Amount,
		Date:        expense.Date,
		HasReceipt:  expense.ReceiptKey != nil,
	}
}

func (h HandlerSet) CreateExpense(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}
	req, valid := bindRecord(c)
	if !valid {
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), payload.UserID, req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, toExpenseResponse(expense))
}

func (h HandlerSet) ListExpenses(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	expenses, err := h.expenseService.List(c.Request.Context(), payload.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		resp = append(resp, toExpenseResponse(expense))
	}
	ok(c, resp)
}

func (h HandlerSet) GetExpense(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	expense, err := h.expenseService.Get(c.Request.Context(), payload.UserID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, toExpenseResponse(expense))
}

func (h HandlerSet) UpdateExpense(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}
	req, valid := bindRecord(c)
	if !valid {
		return
	}

	expense, err := h.expenseService.Update(c.Request.Context(), payload.UserID, c.Param("id"), req.toInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, toExpenseResponse(expense))
}

func (h HandlerSet) DeleteExpense(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	if err := h.expenseService.Delete(c.Request.Context(), payload.UserID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": true})
}

func (h HandlerSet) AttachReceipt(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	expense, err := h.expenseService.AttachReceipt(
		c.Request.Context(),
		payload.UserID,
		c.Param("id"),
		file,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, toExpenseResponse(expense))
}

func (h HandlerSet) GetReceiptURL(c *gin.Context) {
	payload, authed := requirePayload(c)
	if !authed {
		return
	}

	url, err := h.expenseService.ReceiptURL(c.Request.Context(), payload.UserID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"url": url})
}
