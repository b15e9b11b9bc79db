package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"budgetbook/api/internal/ids"
	"budgetbook/api/internal/models"
	"budgetbook/api/internal/repository"
)

type IncomeService struct {
	incomes    *repository.IncomeRepository
	categories *repository.CategoryRepository
	log        zerolog.Logger
}

func NewIncomeService(incomes *repository.IncomeRepository, categories *repository.CategoryRepository, log zerolog.Logger) *IncomeService {
	return &IncomeService{incomes: incomes, categories: categories, log: log}
}

type RecordInput struct {
	CategoryID  string
	Description string
	Amount      string
	Date        time.Time
}

func (s *IncomeService) Create(ctx context.Context, userID string, input RecordInput) (models.Income, error) {
	if _, err := s.categories.GetVisible(ctx, userID, input.CategoryID); err != nil {
		return models.Income{}, err
	}

	income := models.Income{
		ID:          ids.New(),
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        input.Date,
	}
	if err := s.incomes.Create(ctx, income); err != nil {
		return models.Income{}, err
	}
	return income, nil
}

func (s *IncomeService) List(ctx context.Context, userID string) ([]models.Income, error) {
	return s.incomes.ListByUser(ctx, userID)
}

func (s *IncomeService) Get(ctx context.Context, userID string, id string) (models.Income, error) {
	return s.incomes.GetOwned(ctx, userID, id)
}

func (s *IncomeService) Update(ctx context.Context, userID string, id string, input RecordInput) (models.Income, error) {
	income, err := s.incomes.GetOwned(ctx, userID, id)
	if err != nil {
		return models.Income{}, err
	}
	if _, err := s.categories.GetVisible(ctx, userID, input.CategoryID); err != nil {
		return models.Income{}, err
	}

	income.CategoryID = input.CategoryID
	income.Description = input.Description
	income.Amount = input.Amount
	income.Date = input.Date
	return s.incomes.Update(ctx, income)
}

func (s *IncomeService) Delete(ctx context.Context, userID string, id string) error {
	income, err := s.incomes.GetOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.incomes.Delete(ctx, income.ID)
}
