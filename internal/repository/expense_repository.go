package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetbook/api/internal/models"
)

var ErrExpenseNotFound = errors.New("expense not found")

type ExpenseRepository struct {
	pool *pgxpool.Pool
}

func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

func (r *ExpenseRepository) Create(ctx context.Context, expense models.Expense) error {
	const query = `
		INSERT INTO expenses (id, user_id, category_id, description, amount, date, receipt_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		expense.ID, expense.UserID, expense.CategoryID, expense.Description,
		expense.Amount, expense.Date, expense.ReceiptKey)
	return err
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userID string) ([]models.Expense, error) {
	const query = `
		SELECT id, user_id, category_id, description, amount::text, date, receipt_key, created_at, updated_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var expense models.Expense
		if err := rows.Scan(
			&expense.ID, &expense.UserID, &expense.CategoryID, &expense.Description,
			&expense.Amount, &expense.Date, &expense.ReceiptKey,
			&expense.CreatedAt, &expense.UpdatedAt,
		); err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (r *ExpenseRepository) GetOwned(ctx context.Context, userID string, id string) (models.Expense, error) {
	const query = `
		SELECT id, user_id, category_id, description, amount::text, date, receipt_key, created_at, updated_at
		FROM expenses
		WHERE id = $2 AND user_id = $1
	`
	row := r.pool.QueryRow(ctx, query, userID, id)
	var expense models.Expense
	if err := row.Scan(
		&expense.ID, &expense.UserID, &expense.CategoryID, &expense.Description,
		&expense.Amount, &expense.Date, &expense.ReceiptKey,
		&expense.CreatedAt, &expense.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Expense{}, ErrExpenseNotFound
		}
		return models.Expense{}, err
	}
	return expense, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, expense models.Expense) (models.Expense, error) {
	const query = `
		UPDATE expenses
		SET category_id = $2, description = $3, amount = $4::numeric, date = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, category_id, description, amount::text, date, receipt_key, created_at, updated_at
	`
	row := r.pool.QueryRow(ctx, query,
		expense.ID, expense.CategoryID, expense.Description, expense.Amount, expense.Date)
	var updated models.Expense
	if err := row.Scan(
		&updated.ID, &updated.UserID, &updated.CategoryID, &updated.Description,
		&updated.Amount, &updated.Date, &updated.ReceiptKey,
		&updated.CreatedAt, &updated.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Expense{}, ErrExpenseNotFound
		}
		return models.Expense{}, err
	}
	return updated, nil
}

func (r *ExpenseRepository) SetReceiptKey(ctx context.Context, id string, key string) error {
	const query = `UPDATE expenses SET receipt_key = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, key)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM expenses WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}
