package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renTrentoBack/internal/models"
	"renTrentoBack/internal/repositories/memstore"
)

type fakeUploader struct {
	folder string
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, folder, fileName, _ string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.folder = folder
	return "https://cdn.example.com/" + folder + "/" + fileName, nil
}

type productFixture struct {
	store  *memstore.Store
	svc    *ProductService
	owner  models.Principal
	other  models.Principal
	admin  models.Principal
	images *fakeUploader
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	for _, id := range []string{"owner", "other", "client"} {
		_, err := store.Users().CreateUser(ctx, models.User{ID: id, UserName: id, Email: id + "@example.com", Role: models.RoleUser, Wallet: decimal.NewFromInt(100)})
		require.NoError(t, err)
	}
	_, err := store.Categories().CreateCategory(ctx, models.Category{ID: "c1", Name: "Bikes"})
	require.NoError(t, err)

	images := &fakeUploader{}
	return &productFixture{
		store:  store,
		svc:    NewProductService(store, images),
		owner:  models.Principal{ID: "owner", UserName: "owner", Role: models.RoleUser},
		other:  models.Principal{ID: "other", Role: models.RoleUser},
		admin:  models.Principal{ID: "root", Role: models.RoleAdmin},
		images: images,
	}
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateProduct(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProduct(ctx, f.owner, ProductInput{Name: "Bike", Category: "Bikes", PricePerDay: price("12.5")})
	require.NoError(t, err)
	assert.Equal(t, "owner", p.OwnerID)
	assert.Equal(t, "owner", p.OwnerName)
	assert.Equal(t, models.ProductAvailable, p.Status)

	tests := []struct {
		name string
		in   ProductInput
		want error
	}{
		{"missing name", ProductInput{Category: "Bikes", PricePerDay: price("1")}, models.ErrProductNameRequired},
		{"missing price", ProductInput{Name: "x", Category: "Bikes"}, models.ErrProductPriceRequired},
		{"zero price", ProductInput{Name: "x", Category: "Bikes", PricePerDay: price("0")}, models.ErrInvalidPrice},
		{"unknown category", ProductInput{Name: "x", Category: "Boats", PricePerDay: price("1")}, models.ErrInvalidCategory},
		{"rented by hand", ProductInput{Name: "x", Category: "Bikes", PricePerDay: price("1"), Status: models.ProductRented}, models.ErrInvalidProductStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateProduct(ctx, f.owner, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateProduct(ctx, f.owner, ProductInput{Name: "Bike", Category: "Bikes", PricePerDay: price("10")})
	require.NoError(t, err)

	name := "Road bike"
	updated, err := f.svc.UpdateProduct(ctx, f.owner, p.ID, models.ProductUpdate{Name: &name, PricePerDay: price("15")})
	require.NoError(t, err)
	assert.Equal(t, "Road bike", updated.Name)
	assert.True(t, updated.PricePerDay.Equal(decimal.NewFromInt(15)))

	_, err = f.svc.UpdateProduct(ctx, f.other, p.ID, models.ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, models.ErrProductForbidden)

	_, err = f.svc.UpdateProduct(ctx, f.admin, p.ID, models.ProductUpdate{PricePerDay: price("-1")})
	assert.ErrorIs(t, err, models.ErrInvalidPrice)

	_, err = f.svc.UpdateProduct(ctx, f.admin, "missing", models.ProductUpdate{})
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestUpdateProductStaysRented(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateProduct(ctx, f.owner, ProductInput{Name: "Bike", Category: "Bikes", PricePerDay: price("10")})
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = f.store.Rentals().CreateRental(ctx, models.Rental{
		ID: "r1", ProductID: p.ID, RenterID: "owner", ClientID: "client",
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Status: models.RentalActive,
	})
	require.NoError(t, err)

	available := models.ProductAvailable
	updated, err := f.svc.UpdateProduct(ctx, f.owner, p.ID, models.ProductUpdate{Status: &available})
	require.NoError(t, err)
	assert.Equal(t, models.ProductRented, updated.Status)

	unavailable := models.ProductUnavailable
	updated, err = f.svc.UpdateProduct(ctx, f.owner, p.ID, models.ProductUpdate{Status: &unavailable})
	require.NoError(t, err)
	assert.Equal(t, models.ProductUnavailable, updated.Status)
}

func TestDeleteProduct(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateProduct(ctx, f.owner, ProductInput{Name: "Bike", Category: "Bikes", PricePerDay: price("10")})
	require.NoError(t, err)

	_, err = f.store.Rentals().CreateRental(ctx, models.Rental{ID: "r1", ProductID: p.ID, Status: models.RentalActive})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, f.other, p.ID), models.ErrProductForbidden)
	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, f.owner, p.ID), models.ErrProductHasRentals)

	require.NoError(t, f.store.Rentals().DeleteRental(ctx, "r1"))
	require.NoError(t, f.svc.DeleteProduct(ctx, f.owner, p.ID))
	_, err = f.svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestUploadImage(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	p, err := f.svc.CreateProduct(ctx, f.owner, ProductInput{Name: "Bike", Category: "Bikes", PricePerDay: price("10")})
	require.NoError(t, err)

	updated, err := f.svc.UploadImage(ctx, f.owner, p.ID, "bike.jpg", "image/jpeg", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Contains(t, updated.ImageURL, "https://cdn.example.com/products/"+p.ID+"/")
	assert.Equal(t, "products/"+p.ID, f.images.folder)

	_, err = f.svc.UploadImage(ctx, f.other, p.ID, "bike.jpg", "image/jpeg", []byte{1})
	assert.ErrorIs(t, err, models.ErrProductForbidden)
	_, err = f.svc.UploadImage(ctx, f.owner, p.ID, "bike.jpg", "image/jpeg", nil)
	assert.ErrorIs(t, err, models.ErrImageRequired)

	f.images.err = errors.New("bucket gone")
	_, err = f.svc.UploadImage(ctx, f.owner, p.ID, "bike.jpg", "image/jpeg", []byte{1})
	assert.Error(t, err)
	assert.Equal(t, models.KindInternal, models.KindOf(err))

	f.svc.Images = nil
	_, err = f.svc.UploadImage(ctx, f.owner, p.ID, "bike.jpg", "image/jpeg", []byte{1})
	assert.ErrorIs(t, err, models.ErrImageStoreDisabled)
}

func TestCategoryService(t *testing.T) {
	store := memstore.New()
	s := NewCategoryService(store)
	ctx := context.Background()
	admin := models.Principal{ID: "root", Role: models.RoleAdmin}
	user := models.Principal{ID: "u", Role: models.RoleUser}

	_, err := s.CreateCategory(ctx, user, "Bikes")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = s.CreateCategory(ctx, admin, "  ")
	assert.ErrorIs(t, err, models.ErrCategoryNameRequired)

	c, err := s.CreateCategory(ctx, admin, "Bikes")
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, admin, "Bikes")
	assert.ErrorIs(t, err, models.ErrDuplicateCategory)

	all, err := s.GetAllCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, s.DeleteCategory(ctx, user, c.ID), models.ErrForbidden)
	require.NoError(t, s.DeleteCategory(ctx, admin, c.ID))
	assert.ErrorIs(t, s.DeleteCategory(ctx, admin, c.ID), models.ErrCategoryNotFound)
}
