package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renTrentoBack/internal/lock"
	"renTrentoBack/internal/models"
	"renTrentoBack/internal/repositories"
	"renTrentoBack/internal/repositories/memstore"
)

type recorder struct {
	mu     sync.Mutex
	events []models.RentalEvent
}

func (r *recorder) Publish(_ context.Context, e models.RentalEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	t       *testing.T
	store   *memstore.Store
	svc     *RentalService
	events  *recorder
	now     time.Time
	owner   models.Principal
	client  models.Principal
	other   models.Principal
	admin   models.Principal
	product models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	f := &fixture{
		t:      t,
		store:  memstore.New(),
		events: &recorder{},
		now:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewRentalService(f.store, lock.NewLocal(), f.events, logger)
	f.svc.Now = func() time.Time { return f.now }

	f.owner = f.addUser("owner", models.RoleUser, 0)
	f.client = f.addUser("client", models.RoleUser, 50)
	f.other = f.addUser("other", models.RoleUser, 100)
	f.admin = f.addUser("admin", models.RoleAdmin, 0)
	f.product = f.addProduct("p1", f.owner.ID, "10")
	return f
}

func (f *fixture) addUser(id, role string, wallet int64) models.Principal {
	f.t.Helper()
	_, err := f.store.Users().CreateUser(context.Background(), models.User{
		ID:        id,
		UserName:  id,
		Email:     id + "@example.com",
		Role:      role,
		Wallet:    decimal.NewFromInt(wallet),
		CreatedAt: f.now,
	})
	require.NoError(f.t, err)
	return models.Principal{ID: id, UserName: id, Role: role, Email: id + "@example.com"}
}

func (f *fixture) addProduct(id, ownerID, price string) models.Product {
	f.t.Helper()
	p, err := f.store.Products().CreateProduct(context.Background(), models.Product{
		ID:          id,
		OwnerID:     ownerID,
		Name:        "Bike " + id,
		Category:    "Bikes",
		PricePerDay: decimal.RequireFromString(price),
		Status:      models.ProductAvailable,
		CreatedAt:   f.now,
	})
	require.NoError(f.t, err)
	return p
}

// day returns now shifted by n days.
func (f *fixture) day(n int) time.Time {
	return f.now.Add(time.Duration(n) * 24 * time.Hour)
}

func (f *fixture) wallet(id string) decimal.Decimal {
	f.t.Helper()
	u, err := f.store.Users().GetUserByID(context.Background(), id)
	require.NoError(f.t, err)
	return u.Wallet
}

func (f *fixture) assertWallet(id, want string) {
	f.t.Helper()
	got := f.wallet(id)
	assert.Truef(f.t, got.Equal(decimal.RequireFromString(want)), "wallet of %s: want %s, got %s", id, want, got)
}

func (f *fixture) book(caller models.Principal, start, end time.Time) (models.Rental, error) {
	return f.svc.CreateRental(context.Background(), caller, models.CreateRentalInput{
		ProductID: f.product.ID,
		StartDate: start,
		EndDate:   end,
	})
}

func TestCreateRentalChargesClient(t *testing.T) {
	f := newFixture(t)

	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	assert.Equal(t, models.RentalActive, rental.Status)
	assert.Equal(t, f.owner.ID, rental.RenterID)
	assert.Equal(t, f.client.ID, rental.ClientID)
	assert.True(t, rental.RentalPrice.Equal(decimal.NewFromInt(20)))
	f.assertWallet(f.client.ID, "30")
	f.assertWallet(f.owner.ID, "20")
	assert.Equal(t, []string{models.EventRentalCreated}, f.events.types())

	entries, err := f.store.Ledger().ListEntriesByUser(context.Background(), f.owner.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LedgerRentalCharge, entries[0].Kind)
	assert.Equal(t, rental.ID, entries[0].RentalID)
}

func TestCreateRentalPartialDayIsBilled(t *testing.T) {
	f := newFixture(t)

	rental, err := f.book(f.client, f.day(1), f.day(2).Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, rental.RentalPrice.Equal(decimal.NewFromInt(20)))
}

func TestCreateRentalValidation(t *testing.T) {
	f := newFixture(t)
	f.addProduct("hidden", f.owner.ID, "10")
	unavailable := models.ProductUnavailable
	require.NoError(t, f.store.Products().SetProductStatus(context.Background(), "hidden", unavailable))

	tests := []struct {
		name    string
		caller  models.Principal
		product string
		start   time.Time
		end     time.Time
		want    error
	}{
		{"unknown product", f.client, "missing", f.day(1), f.day(2), models.ErrIncorrectProductID},
		{"own product", f.owner, f.product.ID, f.day(1), f.day(2), models.ErrOwnProduct},
		{"start equals end", f.client, f.product.ID, f.day(1), f.day(1), models.ErrInvalidPeriod},
		{"end before start", f.client, f.product.ID, f.day(2), f.day(1), models.ErrInvalidPeriod},
		{"start in the past", f.client, f.product.ID, f.now.Add(-time.Second), f.day(1), models.ErrInvalidPeriod},
		{"unavailable product", f.client, "hidden", f.day(1), f.day(2), models.ErrProductNotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateRental(context.Background(), tt.caller, models.CreateRentalInput{
				ProductID: tt.product,
				StartDate: tt.start,
				EndDate:   tt.end,
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	f.assertWallet(f.client.ID, "50")
	assert.Empty(t, f.events.types())
}

func TestCreateRentalStartingNow(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(f.client, f.now, f.day(1))
	require.NoError(t, err)

	p, err := f.store.Products().GetProductByID(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductRented, p.Status)
}

func TestCreateRentalOverlap(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(f.client, f.day(2), f.day(4))
	require.NoError(t, err)

	_, err = f.book(f.other, f.day(3), f.day(5))
	assert.ErrorIs(t, err, models.ErrProductAlreadyTaken)
	f.assertWallet(f.other.ID, "100")

	_, err = f.book(f.other, f.day(1), f.day(5))
	assert.ErrorIs(t, err, models.ErrProductAlreadyTaken)

	// touching windows do not overlap
	_, err = f.book(f.other, f.day(4), f.day(5))
	assert.NoError(t, err)
	_, err = f.book(f.other, f.day(1), f.day(2))
	assert.NoError(t, err)
}

func TestCreateRentalCancelledDoesNotBlock(t *testing.T) {
	f := newFixture(t)

	rental, err := f.book(f.client, f.day(2), f.day(4))
	require.NoError(t, err)
	_, err = f.svc.CancelRental(context.Background(), f.client, rental.ID)
	require.NoError(t, err)

	_, err = f.book(f.other, f.day(3), f.day(5))
	assert.NoError(t, err)
}

func TestCreateRentalInsufficientFunds(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(f.client, f.day(1), f.day(7))
	assert.ErrorIs(t, err, models.ErrNotEnoughMoney)

	f.assertWallet(f.client.ID, "50")
	f.assertWallet(f.owner.ID, "0")
	rentals, err := f.store.Rentals().ListRentals(context.Background(), models.RentalFilter{})
	require.NoError(t, err)
	assert.Empty(t, rentals)
}

func TestCreateRentalConcurrentBookings(t *testing.T) {
	f := newFixture(t)
	clients := make([]models.Principal, 8)
	for i := range clients {
		clients[i] = f.addUser("c"+string(rune('a'+i)), models.RoleUser, 100)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(clients))
	for i, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.book(c, f.day(1), f.day(2))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrProductAlreadyTaken)
	}
	assert.Equal(t, 1, succeeded)
	f.assertWallet(f.owner.ID, "10")
}

func TestGetRentalAccess(t *testing.T) {
	f := newFixture(t)
	rental, err := f.book(f.client, f.day(1), f.day(2))
	require.NoError(t, err)
	ctx := context.Background()

	for _, p := range []models.Principal{f.client, f.owner, f.admin} {
		got, err := f.svc.GetRental(ctx, p, rental.ID)
		require.NoError(t, err)
		assert.Equal(t, rental.ID, got.ID)
	}

	_, err = f.svc.GetRental(ctx, f.other, rental.ID)
	assert.ErrorIs(t, err, models.ErrRentalForbidden)

	_, err = f.svc.GetRental(ctx, f.client, "missing")
	assert.ErrorIs(t, err, models.ErrRentalNotFound)

	// strangers are refused every mutation too
	assert.ErrorIs(t, f.svc.UpdateRental(ctx, f.other, rental.ID, models.RentalUpdate{}), models.ErrRentalForbidden)
	assert.ErrorIs(t, f.svc.DeleteRental(ctx, f.other, rental.ID), models.ErrRentalForbidden)
	_, err = f.svc.CancelRental(ctx, f.other, rental.ID)
	assert.ErrorIs(t, err, models.ErrRentalForbidden)
}

func TestListRentalsVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := f.addProduct("p2", f.other.ID, "5")

	_, err := f.book(f.client, f.day(1), f.day(2))
	require.NoError(t, err)
	_, err = f.svc.CreateRental(ctx, f.client, models.CreateRentalInput{ProductID: second.ID, StartDate: f.day(1), EndDate: f.day(2)})
	require.NoError(t, err)

	mine, err := f.svc.ListRentals(ctx, f.owner, models.RentalFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.ListRentals(ctx, f.admin, models.RentalFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byProduct, err := f.svc.ListRentals(ctx, f.client, models.RentalFilter{ProductID: second.ID})
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, f.other.ID, byProduct[0].RenterID)

	none, err := f.svc.ListRentals(ctx, f.owner, models.RentalFilter{ProductID: second.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateRentalReprices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	end := f.day(4)
	require.NoError(t, f.svc.UpdateRental(ctx, f.client, rental.ID, models.RentalUpdate{EndDate: &end}))
	f.assertWallet(f.client.ID, "20")
	f.assertWallet(f.owner.ID, "30")

	end = f.day(2)
	require.NoError(t, f.svc.UpdateRental(ctx, f.owner, rental.ID, models.RentalUpdate{EndDate: &end}))
	f.assertWallet(f.client.ID, "40")
	f.assertWallet(f.owner.ID, "10")

	got, err := f.svc.GetRental(ctx, f.client, rental.ID)
	require.NoError(t, err)
	assert.True(t, got.RentalPrice.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, []string{models.EventRentalCreated, models.EventRentalUpdated, models.EventRentalUpdated}, f.events.types())
}

func TestUpdateRentalNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	start, end, status := rental.StartDate, rental.EndDate, rental.Status
	for i := 0; i < 2; i++ {
		require.NoError(t, f.svc.UpdateRental(ctx, f.client, rental.ID, models.RentalUpdate{StartDate: &start, EndDate: &end, Status: &status}))
	}

	f.assertWallet(f.client.ID, "30")
	f.assertWallet(f.owner.ID, "20")
	got, err := f.svc.GetRental(ctx, f.client, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, rental, got)
	assert.Equal(t, []string{models.EventRentalCreated}, f.events.types())
}

func TestUpdateRentalAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)
	_, err = f.book(f.other, f.day(4), f.day(6))
	require.NoError(t, err)

	// moving within its own window only collides with itself
	start := f.day(2)
	assert.NoError(t, f.svc.UpdateRental(ctx, f.client, first.ID, models.RentalUpdate{StartDate: &start}))

	end := f.day(5)
	assert.ErrorIs(t, f.svc.UpdateRental(ctx, f.client, first.ID, models.RentalUpdate{EndDate: &end}), models.ErrProductAlreadyTaken)
}

func TestUpdateRentalValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	past := f.now.Add(-time.Hour)
	late := f.day(5)
	sameAsStart := rental.StartDate
	bogus := "paused"

	tests := []struct {
		name string
		upd  models.RentalUpdate
		want error
	}{
		{"start in the past", models.RentalUpdate{StartDate: &past}, models.ErrInvalidPeriod},
		{"start after end", models.RentalUpdate{StartDate: &late}, models.ErrInvalidPeriod},
		{"empty window", models.RentalUpdate{EndDate: &sameAsStart}, models.ErrInvalidPeriod},
		{"unknown status", models.RentalUpdate{Status: &bogus}, models.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.svc.UpdateRental(ctx, f.client, rental.ID, tt.upd), tt.want)
		})
	}
	f.assertWallet(f.client.ID, "30")
}

func TestUpdateRentalInsufficientDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(5))
	require.NoError(t, err)
	f.assertWallet(f.client.ID, "10")

	end := f.day(7)
	assert.ErrorIs(t, f.svc.UpdateRental(ctx, f.client, rental.ID, models.RentalUpdate{EndDate: &end}), models.ErrNotEnoughMoney)
	f.assertWallet(f.client.ID, "10")
	f.assertWallet(f.owner.ID, "40")
}

func TestUpdateRentalStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	notActive := models.RentalNotActive
	require.NoError(t, f.svc.UpdateRental(ctx, f.client, rental.ID, models.RentalUpdate{Status: &notActive}))
	f.assertWallet(f.client.ID, "50")
	f.assertWallet(f.owner.ID, "0")

	// same status again is a no-op
	require.NoError(t, f.svc.UpdateRental(ctx, f.client, rental.ID, models.RentalUpdate{Status: &notActive}))
	f.assertWallet(f.client.ID, "50")

	active := models.RentalActive
	assert.ErrorIs(t, f.svc.UpdateRental(ctx, f.client, rental.ID, models.RentalUpdate{Status: &active}), models.ErrInvalidTransition)

	end := f.day(4)
	assert.ErrorIs(t, f.svc.UpdateRental(ctx, f.client, rental.ID, models.RentalUpdate{EndDate: &end}), models.ErrRentalClosed)
}

func TestUpdateRentalFinish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	finished := models.RentalFinished
	require.NoError(t, f.svc.UpdateRental(ctx, f.owner, rental.ID, models.RentalUpdate{Status: &finished}))
	got, err := f.svc.GetRental(ctx, f.owner, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalFinished, got.Status)
	f.assertWallet(f.owner.ID, "20")

	notActive := models.RentalNotActive
	assert.ErrorIs(t, f.svc.UpdateRental(ctx, f.owner, rental.ID, models.RentalUpdate{Status: &notActive}), models.ErrInvalidTransition)
}

func TestCancelRental(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	cancelled, err := f.svc.CancelRental(ctx, f.owner, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalNotActive, cancelled.Status)
	f.assertWallet(f.client.ID, "50")
	f.assertWallet(f.owner.ID, "0")

	entries, err := f.store.Ledger().ListEntriesByUser(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.LedgerRentalRefund, entries[1].Kind)
	assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(20)))

	_, err = f.svc.CancelRental(ctx, f.owner, rental.ID)
	require.NoError(t, err)
	f.assertWallet(f.client.ID, "50")
	assert.Equal(t, []string{models.EventRentalCreated, models.EventRentalCancelled}, f.events.types())
}

func TestCancelStartedRental(t *testing.T) {
	f := newFixture(t)
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	f.now = f.day(1)
	_, err = f.svc.CancelRental(context.Background(), f.client, rental.ID)
	assert.ErrorIs(t, err, models.ErrRentalStarted)
	f.assertWallet(f.client.ID, "30")
}

func TestDeleteRentalKeepsWallets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRental(ctx, f.admin, rental.ID))
	_, err = f.svc.GetRental(ctx, f.admin, rental.ID)
	assert.ErrorIs(t, err, models.ErrRentalNotFound)
	f.assertWallet(f.client.ID, "30")
	f.assertWallet(f.owner.ID, "20")
	assert.ErrorIs(t, f.svc.DeleteRental(ctx, f.admin, rental.ID), models.ErrRentalNotFound)
}

func TestUpdateRentalMissingParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rental, err := f.book(f.client, f.day(1), f.day(3))
	require.NoError(t, err)
	require.NoError(t, f.store.Users().DeleteUser(ctx, f.owner.ID))

	end := f.day(4)
	assert.ErrorIs(t, f.svc.UpdateRental(ctx, f.client, rental.ID, models.RentalUpdate{EndDate: &end}), models.ErrUserNotFound)
	f.assertWallet(f.client.ID, "30")
}

func TestFinishExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	running, err := f.book(f.client, f.now, f.day(1))
	require.NoError(t, err)
	later, err := f.book(f.other, f.day(2), f.day(4))
	require.NoError(t, err)

	f.now = f.day(1)
	n, err := f.svc.FinishExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.GetRental(ctx, f.admin, running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalFinished, got.Status)
	got, err = f.svc.GetRental(ctx, f.admin, later.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RentalActive, got.Status)

	p, err := f.store.Products().GetProductByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductAvailable, p.Status)

	n, err = f.svc.FinishExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSyncProductStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.book(f.client, f.day(1), f.day(2))
	require.NoError(t, err)

	f.now = f.day(1).Add(time.Hour)
	require.NoError(t, f.svc.SyncProductStatuses(ctx))
	p, err := f.store.Products().GetProductByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductRented, p.Status)

	f.now = f.day(3)
	require.NoError(t, f.svc.SyncProductStatuses(ctx))
	p, err = f.store.Products().GetProductByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductAvailable, p.Status)
}

// ownerRace stands for an owner withdrawing a product right after the
// sync job listed it.
type ownerRace struct {
	*memstore.Store
	productID string
	once      sync.Once
}

func (o *ownerRace) Products() repositories.ProductRepository {
	return &racingProducts{ProductRepository: o.Store.Products(), race: o}
}

type racingProducts struct {
	repositories.ProductRepository
	race *ownerRace
}

func (r *racingProducts) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products, err := r.ProductRepository.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.race.once.Do(func() {
		err = r.race.Store.Products().SetProductStatus(ctx, r.race.productID, models.ProductUnavailable)
	})
	return products, err
}

func TestSyncProductStatusesKeepsConcurrentOwnerWithdrawal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Products().SetProductStatus(ctx, f.product.ID, models.ProductRented))

	logger, _ := test.NewNullLogger()
	svc := NewRentalService(&ownerRace{Store: f.store, productID: f.product.ID}, lock.NewLocal(), f.events, logger)
	svc.Now = func() time.Time { return f.now }

	require.NoError(t, svc.SyncProductStatuses(ctx))
	p, err := f.store.Products().GetProductByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductUnavailable, p.Status)
}

func TestSyncProductStatusesKeepsFreshBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.book(f.client, f.now, f.day(1))
	require.NoError(t, err)

	require.NoError(t, f.svc.SyncProductStatuses(ctx))
	p, err := f.store.Products().GetProductByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductRented, p.Status)
}

func TestNewRentalServiceDefaults(t *testing.T) {
	svc := NewRentalService(memstore.New(), lock.NewLocal(), nil, nil)
	assert.NotNil(t, svc.Events)
	assert.Equal(t, logrus.StandardLogger(), svc.Logger)
}
