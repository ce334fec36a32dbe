package memstore

import (
	"context"

	"renTrentoBack/internal/models"
)

type categoryRepo struct {
	s *Store
}

func (r *categoryRepo) CreateCategory(ctx context.Context, category models.Category) (models.Category, error) {
	err := r.s.write(ctx, func(st *state) error {
		for _, c := range st.categories {
			if c.Name == category.Name {
				return models.ErrDuplicate
			}
		}
		st.categories[category.ID] = category
		return nil
	})
	if err != nil {
		return models.Category{}, err
	}
	return category, nil
}

func (r *categoryRepo) GetCategoryByID(ctx context.Context, id string) (models.Category, error) {
	var category models.Category
	err := r.s.read(ctx, func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return models.ErrNoRecord
		}
		category = c
		return nil
	})
	return category, err
}

func (r *categoryRepo) GetCategoryByName(ctx context.Context, name string) (models.Category, error) {
	var category models.Category
	err := r.s.read(ctx, func(st *state) error {
		for _, c := range st.categories {
			if c.Name == name {
				category = c
				return nil
			}
		}
		return models.ErrNoRecord
	})
	return category, err
}

func (r *categoryRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.s.read(ctx, func(st *state) error {
		for _, c := range st.categories {
			categories = append(categories, c)
		}
		return nil
	})
	sortByCreated(categories, func(c models.Category) (int64, string) { return c.CreatedAt.UnixNano(), c.ID })
	return categories, err
}

func (r *categoryRepo) DeleteCategory(ctx context.Context, id string) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return models.ErrNoRecord
		}
		delete(st.categories, id)
		return nil
	})
}
