package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"renTrentoBack/internal/models"
)

const productColumns = `id, owner_id, owner_name, name, category, description, price_per_day, pick_up_point, image_url, status, created_at, updated_at`

type ProductRepository struct {
	q sqlx.ExtContext
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	query := r.q.Rebind(`
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.q.ExecContext(ctx, query,
		product.ID, product.OwnerID, product.OwnerName, product.Name, product.Category, product.Description,
		product.PricePerDay, product.PickUpPoint, product.ImageURL, product.Status, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return models.Product{}, translate(err, "create product")
	}
	return product, nil
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (models.Product, error) {
	return r.getOne(ctx, "get product", `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
}

func (r *ProductRepository) GetProductByIDForUpdate(ctx context.Context, id string) (models.Product, error) {
	return r.getOne(ctx, "lock product", `SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, id)
}

func (r *ProductRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (models.Product, error) {
	var product models.Product
	if err := sqlx.GetContext(ctx, r.q, &product, r.q.Rebind(query), args...); err != nil {
		return models.Product{}, translate(err, op)
	}
	return product, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at, id`

	products := []models.Product{}
	if err := sqlx.SelectContext(ctx, r.q, &products, r.q.Rebind(query), args...); err != nil {
		return nil, translate(err, "list products")
	}
	return products, nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product models.Product) error {
	query := r.q.Rebind(`
		UPDATE products
		SET name = ?, category = ?, description = ?, price_per_day = ?, pick_up_point = ?, image_url = ?, status = ?, updated_at = ?
		WHERE id = ?
	`)
	_, err := r.q.ExecContext(ctx, query,
		product.Name, product.Category, product.Description, product.PricePerDay, product.PickUpPoint,
		product.ImageURL, product.Status, product.UpdatedAt, product.ID,
	)
	return translate(err, "update product")
}

func (r *ProductRepository) SetProductStatus(ctx context.Context, id, status string) error {
	query := r.q.Rebind(`UPDATE products SET status = ?, updated_at = ? WHERE id = ?`)
	_, err := r.q.ExecContext(ctx, query, status, time.Now().UTC(), id)
	return translate(err, "set product status")
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return translate(err, "delete product")
	}
	return expectAffected(res, "delete product")
}
