package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"budgetbook/api/internal/ids"
	"budgetbook/api/internal/models"
	"budgetbook/api/internal/repository"
	"budgetbook/api/internal/storage"
)

var ErrReceiptNotFound = errors.New("receipt not found")

const receiptURLExpiry = 15 * time.Minute

type ExpenseService struct {
	expenses   *repository.ExpenseRepository
	categories *repository.CategoryRepository
	store      *storage.ObjectStore
	log        zerolog.Logger
}

func NewExpenseService(
	expenses *repository.ExpenseRepository,
	categories *repository.CategoryRepository,
	store *storage.ObjectStore,
	log zerolog.Logger,
) *ExpenseService {
	return &ExpenseService{expenses: expenses, categories: categories, store: store, log: log}
}

func (s *ExpenseService) Create(ctx context.Context, userID string, input RecordInput) (models.Expense, error) {
	if _, err := s.categories.GetVisible(ctx, userID, input.CategoryID); err != nil {
		return models.Expense{}, err
	}

	expense := models.Expense{
		ID:          ids.New(),
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        input.Date,
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

func (s *ExpenseService) List(ctx context.Context, userID string) ([]models.Expense, error) {
	return s.expenses.ListByUser(ctx, userID)
}

func (s *ExpenseService) Get(ctx context.Context, userID string, id string) (models.Expense, error) {
	return s.expenses.GetOwned(ctx, userID, id)
}

func (s *ExpenseService) Update(ctx context.Context, userID string, id string, input RecordInput) (models.Expense, error) {
	expense, err := s.expenses.GetOwned(ctx, userID, id)
	if err != nil {
		return models.Expense{}, err
	}
	if _, err := s.categories.GetVisible(ctx, userID, input.CategoryID); err != nil {
		return models.Expense{}, err
	}

	expense.CategoryID = input.CategoryID
	expense.Description = input.Description
	expense.Amount = input.Amount
	expense.Date = input.Date
	return s.expenses.Update(ctx, expense)
}

func (s *ExpenseService) Delete(ctx context.Context, userID string, id string) error {
	expense, err := s.expenses.GetOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.expenses.Delete(ctx, expense.ID); err != nil {
		return err
	}
	if expense.ReceiptKey != nil {
		if err := s.store.RemoveReceipt(ctx, *expense.ReceiptKey); err != nil {
			s.log.Warn().Err(err).Str("expense_id", id).Msg("orphaned receipt object")
		}
	}
	return nil
}

// AttachReceipt uploads a receipt image for an owned expense and records
// its object key. A second upload replaces the previous object under the
// same key.
func (s *ExpenseService) AttachReceipt(ctx context.Context, userID string, id string, reader io.Reader, size int64, contentType string) (models.Expense, error) {
	expense, err := s.expenses.GetOwned(ctx, userID, id)
	if err != nil {
		return models.Expense{}, err
	}

	key := fmt.Sprintf("%s/%s", userID, expense.ID)
	if err := s.store.PutReceipt(ctx, key, reader, size, contentType); err != nil {
		return models.Expense{}, err
	}

	if err := s.expenses.SetReceiptKey(ctx, expense.ID, key); err != nil {
		return models.Expense{}, err
	}
	expense.ReceiptKey = &key
	return expense, nil
}

func (s *ExpenseService) ReceiptURL(ctx context.Context, userID string, id string) (string, error) {
	expense, err := s.expenses.GetOwned(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if expense.ReceiptKey == nil {
		return "", ErrReceiptNotFound
	}
	return s.store.PresignReceiptURL(ctx, *expense.ReceiptKey, receiptURLExpiry)
}
