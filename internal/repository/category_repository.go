package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetbook/api/internal/models"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, category models.Category) error {
	const query = `
		INSERT INTO categories (id, user_id, name, description, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		category.ID, category.UserID, category.Name, category.Description, category.Type)
	return err
}

// ListOwned returns only the categories the user created; the system
// presets are served from the cached copy kept by CategoryService.
func (r *CategoryRepository) ListOwned(ctx context.Context, userID string) ([]models.Category, error) {
	const query = `
		SELECT id, user_id, name, description, type, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(
			&category.ID, &category.UserID, &category.Name,
			&category.Description, &category.Type,
			&category.CreatedAt, &category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// ListPresets returns only the system preset categories. Backs the cached
// copy served alongside user categories.
func (r *CategoryRepository) ListPresets(ctx context.Context) ([]models.Category, error) {
	const query = `
		SELECT id, user_id, name, description, type, created_at, updated_at
		FROM categories
		WHERE user_id IS NULL
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(
			&category.ID, &category.UserID, &category.Name,
			&category.Description, &category.Type,
			&category.CreatedAt, &category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// GetVisible returns the category if it is the user's own or a preset.
func (r *CategoryRepository) GetVisible(ctx context.Context, userID string, id string) (models.Category, error) {
	const query = `
		SELECT id, user_id, name, description, type, created_at, updated_at
		FROM categories
		WHERE id = $2 AND (user_id = $1 OR user_id IS NULL)
	`
	row := r.pool.QueryRow(ctx, query, userID, id)
	var category models.Category
	if err := row.Scan(
		&category.ID, &category.UserID, &category.Name,
		&category.Description, &category.Type,
		&category.CreatedAt, &category.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Category{}, ErrCategoryNotFound
		}
		return models.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (models.Category, error) {
	const query = `
		SELECT id, user_id, name, description, type, created_at, updated_at
		FROM categories WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	var category models.Category
	if err := row.Scan(
		&category.ID, &category.UserID, &category.Name,
		&category.Description, &category.Type,
		&category.CreatedAt, &category.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Category{}, ErrCategoryNotFound
		}
		return models.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category models.Category) (models.Category, error) {
	const query = `
		UPDATE categories SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, name, description, type, created_at, updated_at
	`
	row := r.pool.QueryRow(ctx, query, category.ID, category.Name, category.Description)
	var updated models.Category
	if err := row.Scan(
		&updated.ID, &updated.UserID, &updated.Name,
		&updated.Description, &updated.Type,
		&updated.CreatedAt, &updated.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Category{}, ErrCategoryNotFound
		}
		return models.Category{}, err
	}
	return updated, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM categories WHERE id = $1 AND user_id IS NOT NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
