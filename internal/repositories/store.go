// Package repositories declares the persistence contracts of the service.
// Implementations live in the sqlstore, mongostore and memstore packages.
package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"renTrentoBack/internal/models"
)

// Lookups return models.ErrNoRecord (possibly wrapped) when nothing matches
// and writes return models.ErrDuplicate on unique key violations.

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	// GetUserByIDForUpdate locks the user row until the surrounding transaction ends.
	GetUserByIDForUpdate(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByUserName(ctx context.Context, userName string) (models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	UpdateWallet(ctx context.Context, id string, wallet decimal.Decimal) error
	DeleteUser(ctx context.Context, id string) error
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product models.Product) (models.Product, error)
	GetProductByID(ctx context.Context, id string) (models.Product, error)
	// GetProductByIDForUpdate serialises bookings of one product.
	GetProductByIDForUpdate(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) error
	SetProductStatus(ctx context.Context, id, status string) error
	DeleteProduct(ctx context.Context, id string) error
}

type RentalRepository interface {
	CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error)
	GetRentalByID(ctx context.Context, id string) (models.Rental, error)
	ListRentals(ctx context.Context, filter models.RentalFilter) ([]models.Rental, error)
	// ListOverlapping returns active rentals of the product whose window
	// intersects [start, end), skipping excludeID.
	ListOverlapping(ctx context.Context, productID string, start, end time.Time, excludeID string) ([]models.Rental, error)
	// ListExpired returns active rentals with an end date at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]models.Rental, error)
	CountActiveByProduct(ctx context.Context, productID string) (int, error)
	UpdateRental(ctx context.Context, rental models.Rental) error
	DeleteRental(ctx context.Context, id string) error
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category models.Category) (models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type LedgerRepository interface {
	AppendEntries(ctx context.Context, entries ...models.LedgerEntry) error
	ListEntriesByUser(ctx context.Context, userID string) ([]models.LedgerEntry, error)
}

// Store groups the repositories of one backend. Repositories obtained from
// the Store handed to a WithinTx callback take part in that transaction; the
// callback must use the context it receives.
type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Rentals() RentalRepository
	Categories() CategoryRepository
	Ledger() LedgerRepository

	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
