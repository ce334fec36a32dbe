package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/repositories"
)

type CategoryService struct {
	Store repositories.Store
	Now   func() time.Time
}

func NewCategoryService(store repositories.Store) *CategoryService {
	return &CategoryService{Store: store, Now: utcNow}
}

func (s *CategoryService) CreateCategory(ctx context.Context, caller models.Principal, name string) (models.Category, error) {
	if !caller.IsAdmin() {
		return models.Category{}, models.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, models.ErrCategoryNameRequired
	}

	_, err := s.Store.Categories().GetCategoryByName(ctx, name)
	switch {
	case err == nil:
		return models.Category{}, models.ErrDuplicateCategory
	case !errors.Is(err, models.ErrNoRecord):
		return models.Category{}, errors.Wrap(err, "lookup category")
	}

	category, err := s.Store.Categories().CreateCategory(ctx, models.Category{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.Now(),
	})
	if errors.Is(err, models.ErrDuplicate) {
		return models.Category{}, models.ErrDuplicateCategory
	}
	if err != nil {
		return models.Category{}, errors.Wrap(err, "create category")
	}
	return category, nil
}

func (s *CategoryService) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	return s.Store.Categories().ListCategories(ctx)
}

func (s *CategoryService) DeleteCategory(ctx context.Context, caller models.Principal, id string) error {
	if !caller.IsAdmin() {
		return models.ErrForbidden
	}
	return notFound(s.Store.Categories().DeleteCategory(ctx, id), models.ErrCategoryNotFound)
}
