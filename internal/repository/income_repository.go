package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetbook/api/internal/models"
)

var ErrIncomeNotFound = errors.New("income not found")

type IncomeRepository struct {
	pool *pgxpool.Pool
}

func NewIncomeRepository(pool *pgxpool.Pool) *IncomeRepository {
	return &IncomeRepository{pool: pool}
}

func (r *IncomeRepository) Create(ctx context.Context, income models.Income) error {
	const query = `
		INSERT INTO incomes (id, user_id, category_id, description, amount, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		income.ID, income.UserID, income.CategoryID, income.Description, income.Amount, income.Date)
	return err
}

func (r *IncomeRepository) ListByUser(ctx context.Context, userID string) ([]models.Income, error) {
	const query = `
		SELECT id, user_id, category_id, description, amount::text, date, created_at, updated_at
		FROM incomes
		WHERE user_id = $1
		ORDER BY date DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incomes []models.Income
	for rows.Next() {
		var income models.Income
		if err := rows.Scan(
			&income.ID, &income.UserID, &income.CategoryID, &income.Description,
			&income.Amount, &income.Date, &income.CreatedAt, &income.UpdatedAt,
		); err != nil {
			return nil, err
		}
		incomes = append(incomes, income)
	}
	return incomes, rows.Err()
}

func (r *IncomeRepository) GetOwned(ctx context.Context, userID string, id string) (models.Income, error) {
	const query = `
		SELECT id, user_id, category_id, description, amount::text, date, created_at, updated_at
		FROM incomes
		WHERE id = $2 AND user_id = $1
	`
	row := r.pool.QueryRow(ctx, query, userID, id)
	var income models.Income
	if err := row.Scan(
		&income.ID, &income.UserID, &income.CategoryID, &income.Description,
		&income.Amount, &income.Date, &income.CreatedAt, &income.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Income{}, ErrIncomeNotFound
		}
		return models.Income{}, err
	}
	return income, nil
}

func (r *IncomeRepository) Update(ctx context.Context, income models.Income) (models.Income, error) {
	const query = `
		UPDATE incomes
		SET category_id = $2, description = $3, amount = $4::numeric, date = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, category_id, description, amount::text, date, created_at, updated_at
	`
	row := r.pool.QueryRow(ctx, query,
		income.ID, income.CategoryID, income.Description, income.Amount, income.Date)
	var updated models.Income
	if err := row.Scan(
		&updated.ID, &updated.UserID, &updated.CategoryID, &updated.Description,
		&updated.Amount, &updated.Date, &updated.CreatedAt, &updated.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Income{}, ErrIncomeNotFound
		}
		return models.Income{}, err
	}
	return updated, nil
}

func (r *IncomeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM incomes WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrIncomeNotFound
	}
	return nil
}
