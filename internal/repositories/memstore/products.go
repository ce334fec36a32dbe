package memstore

import (
	"context"
	"time"

	"renTrentoBack/internal/models"
)

type productRepo struct {
	s *Store
}

func (r *productRepo) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	err := r.s.write(ctx, func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return models.ErrDuplicate
		}
		st.products[product.ID] = product
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (r *productRepo) GetProductByID(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	err := r.s.read(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return models.ErrNoRecord
		}
		product = p
		return nil
	})
	return product, err
}

func (r *productRepo) GetProductByIDForUpdate(ctx context.Context, id string) (models.Product, error) {
	return r.GetProductByID(ctx, id)
}

func (r *productRepo) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	err := r.s.read(ctx, func(st *state) error {
		for _, p := range st.products {
			if filter.OwnerID != "" && p.OwnerID != filter.OwnerID {
				continue
			}
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			products = append(products, p)
		}
		return nil
	})
	sortByCreated(products, func(p models.Product) (int64, string) { return p.CreatedAt.UnixNano(), p.ID })
	return products, err
}

func (r *productRepo) UpdateProduct(ctx context.Context, product models.Product) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return models.ErrNoRecord
		}
		st.products[product.ID] = product
		return nil
	})
}

func (r *productRepo) SetProductStatus(ctx context.Context, id, status string) error {
	return r.s.write(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return models.ErrNoRecord
		}
		p.Status = status
		p.UpdatedAt = time.Now().UTC()
		st.products[id] = p
		return nil
	})
}

func (r *productRepo) DeleteProduct(ctx context.Context, id string) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return models.ErrNoRecord
		}
		delete(st.products, id)
		return nil
	})
}
