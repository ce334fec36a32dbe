package services

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/policy"
	"renTrentoBack/internal/repositories"
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, folder, fileName, contentType string, file []byte) (string, error)
}

type ProductInput struct {
	Name        string
	Category    string
	Description string
	PricePerDay *decimal.Decimal
	PickUpPoint string
	Status      string
}

type ProductService struct {
	Store  repositories.Store
	Images ImageUploader
	Now    func() time.Time
}

// NewProductService builds the service. images may be nil, in which case
// uploads report the storage as unavailable.
func NewProductService(store repositories.Store, images ImageUploader) *ProductService {
	return &ProductService{Store: store, Images: images, Now: utcNow}
}

func (s *ProductService) CreateProduct(ctx context.Context, caller models.Principal, in ProductInput) (models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Product{}, models.ErrProductNameRequired
	}
	if in.PricePerDay == nil {
		return models.Product{}, models.ErrProductPriceRequired
	}
	if !in.PricePerDay.IsPositive() {
		return models.Product{}, models.ErrInvalidPrice
	}
	if err := checkCategory(ctx, s.Store, in.Category); err != nil {
		return models.Product{}, err
	}
	status := in.Status
	if status == "" {
		status = models.ProductAvailable
	}
	if !ownerSettableStatus(status) {
		return models.Product{}, models.ErrInvalidProductStatus
	}

	owner, err := s.Store.Users().GetUserByID(ctx, caller.ID)
	if err != nil {
		return models.Product{}, notFound(err, models.ErrUserNotFound)
	}

	now := s.Now()
	product, err := s.Store.Products().CreateProduct(ctx, models.Product{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		OwnerName:   owner.UserName,
		Name:        name,
		Category:    in.Category,
		Description: in.Description,
		PricePerDay: *in.PricePerDay,
		PickUpPoint: in.PickUpPoint,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return models.Product{}, errors.Wrap(err, "create product")
	}
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	product, err := s.Store.Products().GetProductByID(ctx, id)
	if err != nil {
		return models.Product{}, notFound(err, models.ErrProductNotFound)
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return s.Store.Products().ListProducts(ctx, filter)
}

// UpdateProduct applies the owner's changes. Setting the status back to
// available keeps the product rented while a rental is running.
func (s *ProductService) UpdateProduct(ctx context.Context, caller models.Principal, id string, upd models.ProductUpdate) (models.Product, error) {
	var updated models.Product
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		product, err := tx.Products().GetProductByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, models.ErrProductNotFound)
		}
		if !policy.CanManageProduct(caller, product) {
			return models.ErrProductForbidden
		}

		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return models.ErrProductNameRequired
			}
			product.Name = name
		}
		if upd.Category != nil {
			if err := checkCategory(ctx, tx, *upd.Category); err != nil {
				return err
			}
			product.Category = *upd.Category
		}
		if upd.Description != nil {
			product.Description = *upd.Description
		}
		if upd.PricePerDay != nil {
			if !upd.PricePerDay.IsPositive() {
				return models.ErrInvalidPrice
			}
			product.PricePerDay = *upd.PricePerDay
		}
		if upd.PickUpPoint != nil {
			product.PickUpPoint = *upd.PickUpPoint
		}
		if upd.Status != nil {
			if !ownerSettableStatus(*upd.Status) {
				return models.ErrInvalidProductStatus
			}
			product.Status = *upd.Status
		}

		now := s.Now()
		product.UpdatedAt = now
		if err := tx.Products().UpdateProduct(ctx, product); err != nil {
			return notFound(err, models.ErrProductNotFound)
		}
		if err := syncProductStatus(ctx, tx, product, now); err != nil {
			return err
		}
		updated, err = tx.Products().GetProductByID(ctx, id)
		return err
	})
	if err != nil {
		return models.Product{}, err
	}
	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, caller models.Principal, id string) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		product, err := tx.Products().GetProductByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, models.ErrProductNotFound)
		}
		if !policy.CanManageProduct(caller, product) {
			return models.ErrProductForbidden
		}
		active, err := tx.Rentals().CountActiveByProduct(ctx, id)
		if err != nil {
			return errors.Wrap(err, "count active rentals")
		}
		if active > 0 {
			return models.ErrProductHasRentals
		}
		return notFound(tx.Products().DeleteProduct(ctx, id), models.ErrProductNotFound)
	})
}

// UploadImage stores the image and points the product at it.
func (s *ProductService) UploadImage(ctx context.Context, caller models.Principal, id, fileName, contentType string, data []byte) (models.Product, error) {
	if s.Images == nil {
		return models.Product{}, models.ErrImageStoreDisabled
	}
	if len(data) == 0 {
		return models.Product{}, models.ErrImageRequired
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if !policy.CanManageProduct(caller, product) {
		return models.Product{}, models.ErrProductForbidden
	}

	url, err := s.Images.Upload(ctx, "products/"+id, uuid.NewString()+path.Ext(fileName), contentType, data)
	if err != nil {
		return models.Product{}, errors.Wrap(err, "upload image")
	}

	product.ImageURL = url
	product.UpdatedAt = s.Now()
	if err := s.Store.Products().UpdateProduct(ctx, product); err != nil {
		return models.Product{}, notFound(err, models.ErrProductNotFound)
	}
	return product, nil
}

func checkCategory(ctx context.Context, store repositories.Store, name string) error {
	if strings.TrimSpace(name) == "" {
		return models.ErrInvalidCategory
	}
	_, err := store.Categories().GetCategoryByName(ctx, name)
	if errors.Is(err, models.ErrNoRecord) {
		return models.ErrInvalidCategory
	}
	return errors.Wrap(err, "lookup category")
}

// rented is managed by the rental finisher, never set by hand.
func ownerSettableStatus(status string) bool {
	return status == models.ProductAvailable || status == models.ProductUnavailable
}
