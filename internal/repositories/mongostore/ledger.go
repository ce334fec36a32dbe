package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"renTrentoBack/internal/models"
)

type ledgerDoc struct {
	ID           string               `bson:"_id"`
	UserID       string               `bson:"userId"`
	RentalID     string               `bson:"rentalId,omitempty"`
	Kind         string               `bson:"kind"`
	Amount       primitive.Decimal128 `bson:"amount"`
	BalanceAfter primitive.Decimal128 `bson:"balanceAfter"`
	CreatedAt    time.Time            `bson:"createdAt"`
}

type LedgerRepository struct {
	coll *mongo.Collection
}

func (r *LedgerRepository) AppendEntries(ctx context.Context, entries ...models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		amount, err := toDecimal128(e.Amount)
		if err != nil {
			return err
		}
		balance, err := toDecimal128(e.BalanceAfter)
		if err != nil {
			return err
		}
		docs = append(docs, ledgerDoc{
			ID:           e.ID,
			UserID:       e.UserID,
			RentalID:     e.RentalID,
			Kind:         e.Kind,
			Amount:       amount,
			BalanceAfter: balance,
			CreatedAt:    e.CreatedAt,
		})
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return translate(err, "append wallet entries")
	}
	return nil
}

func (r *LedgerRepository) ListEntriesByUser(ctx context.Context, userID string) ([]models.LedgerEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, translate(err, "list wallet entries")
	}
	var docs []ledgerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "list wallet entries")
	}

	entries := make([]models.LedgerEntry, 0, len(docs))
	for _, d := range docs {
		amount, err := fromDecimal128(d.Amount)
		if err != nil {
			return nil, err
		}
		balance, err := fromDecimal128(d.BalanceAfter)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.LedgerEntry{
			ID:           d.ID,
			UserID:       d.UserID,
			RentalID:     d.RentalID,
			Kind:         d.Kind,
			Amount:       amount,
			BalanceAfter: balance,
			CreatedAt:    d.CreatedAt.UTC(),
		})
	}
	return entries, nil
}
