// Package mongostore implements the repositories on MongoDB. Multi-record
// mutations run in session transactions, so the server must be a replica set.
package mongostore

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"renTrentoBack/internal/repositories"
)

const (
	usersCollection      = "users"
	productsCollection   = "products"
	rentalsCollection    = "rentals"
	categoriesCollection = "categories"
	ledgerCollection     = "wallet_entries"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ repositories.Store = (*Store)(nil)

// Open connects to uri and selects the database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongostore: connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongostore: ping")
	}
	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userName", Value: 1}}, Options: unique},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		},
		rentalsCollection: {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "status", Value: 1}, {Key: "startDate", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}}},
		},
		ledgerCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return errors.Wrapf(err, "mongostore: indexes on %s", coll)
		}
	}
	return nil
}

func (s *Store) Users() repositories.UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Products() repositories.ProductRepository {
	return &ProductRepository{coll: s.db.Collection(productsCollection)}
}

func (s *Store) Rentals() repositories.RentalRepository {
	return &RentalRepository{coll: s.db.Collection(rentalsCollection)}
}

func (s *Store) Categories() repositories.CategoryRepository {
	return &CategoryRepository{coll: s.db.Collection(categoriesCollection)}
}

func (s *Store) Ledger() repositories.LedgerRepository {
	return &LedgerRepository{coll: s.db.Collection(ledgerCollection)}
}

// WithinTx runs fn in a transaction bound to the session context handed to
// fn. The driver may call fn again on transient transaction errors.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "mongostore: start session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
