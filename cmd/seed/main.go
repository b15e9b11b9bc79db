package main

import (
	"context"

	"budgetbook/api/internal/config"
	"budgetbook/api/internal/database"
	"budgetbook/api/internal/ids"
	"budgetbook/api/internal/log"
	"budgetbook/api/internal/models"
	"budgetbook/api/internal/repository"
)

// Seeds the system preset categories (NULL user id) every account can use.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	categories := repository.NewCategoryRepository(dbPool)

	presets := []models.Category{
		{Name: "Rent/Mortgage", Description: "Rent and Mortgage related expenses.", Type: models.CategoryTypeExpense},
		{Name: "Utilities", Description: "All about utilities like electricity, water etc", Type: models.CategoryTypeExpense},
		{Name: "Car payment", Description: "Car payment related expenses", Type: models.CategoryTypeExpense},
		{Name: "Auto insurance", Description: "Auto insurance related expenses", Type: models.CategoryTypeExpense},
		{Name: "Health", Description: "All about health related expenses like medicines, healthcare etc", Type: models.CategoryTypeExpense},
		{Name: "Groceries", Description: "All about groceries related expenses like fruits, vegetables etc", Type: models.CategoryTypeExpense},
		{Name: "Entertainment", Description: "All about entertainment related expenses like movies, games etc", Type: models.CategoryTypeExpense},
		{Name: "Transport", Description: "All about transport related expenses like bus, train etc", Type: models.CategoryTypeExpense},
		{Name: "Dining", Description: "All about dining related expenses like restaurants, hotels etc", Type: models.CategoryTypeExpense},
		{Name: "Miscellaneous", Description: "All about miscellaneous expenses like gifts, loans etc", Type: models.CategoryTypeExpense},
		{Name: "Salary", Type: models.CategoryTypeIncome},
	}

	existing, err := categories.ListPresets(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("list presets failed")
	}
	seen := make(map[string]struct{}, len(existing))
	for _, category := range existing {
		seen[category.Name] = struct{}{}
	}

	created := 0
	for _, preset := range presets {
		if _, dup := seen[preset.Name]; dup {
			continue
		}
		preset.ID = ids.New()
		if err := categories.Create(ctx, preset); err != nil {
			logger.Fatal().Err(err).Str("name", preset.Name).Msg("seed category failed")
		}
		created++
	}

	logger.Info().Int("created", created).Int("skipped", len(presets)-created).Msg("preset categories seeded")
}
