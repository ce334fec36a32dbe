package sqlstore

import (
	"context"

	"github.com/jmoiron/sqlx"

	"renTrentoBack/internal/models"
)

type CategoryRepository struct {
	q sqlx.ExtContext
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category models.Category) (models.Category, error) {
	query := r.q.Rebind(`INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`)
	if _, err := r.q.ExecContext(ctx, query, category.ID, category.Name, category.CreatedAt); err != nil {
		return models.Category{}, translate(err, "create category")
	}
	return category, nil
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id string) (models.Category, error) {
	var category models.Category
	query := r.q.Rebind(`SELECT id, name, created_at FROM categories WHERE id = ?`)
	if err := sqlx.GetContext(ctx, r.q, &category, query, id); err != nil {
		return models.Category{}, translate(err, "get category")
	}
	return category, nil
}

func (r *CategoryRepository) GetCategoryByName(ctx context.Context, name string) (models.Category, error) {
	var category models.Category
	query := r.q.Rebind(`SELECT id, name, created_at FROM categories WHERE name = ?`)
	if err := sqlx.GetContext(ctx, r.q, &category, query, name); err != nil {
		return models.Category{}, translate(err, "get category by name")
	}
	return category, nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := sqlx.SelectContext(ctx, r.q, &categories, `SELECT id, name, created_at FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	return categories, nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return translate(err, "delete category")
	}
	return expectAffected(res, "delete category")
}
