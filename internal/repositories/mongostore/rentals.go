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

type rentalDoc struct {
	ID          string               `bson:"_id"`
	ProductID   string               `bson:"productId"`
	RenterID    string               `bson:"renterId"`
	ClientID    string               `bson:"clientId"`
	StartDate   time.Time            `bson:"startDate"`
	EndDate     time.Time            `bson:"endDate"`
	RentalPrice primitive.Decimal128 `bson:"rentalPrice"`
	Status      string               `bson:"status"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func newRentalDoc(v models.Rental) (rentalDoc, error) {
	price, err := toDecimal128(v.RentalPrice)
	if err != nil {
		return rentalDoc{}, err
	}
	return rentalDoc{
		ID:          v.ID,
		ProductID:   v.ProductID,
		RenterID:    v.RenterID,
		ClientID:    v.ClientID,
		StartDate:   v.StartDate,
		EndDate:     v.EndDate,
		RentalPrice: price,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}, nil
}

func (d rentalDoc) model() (models.Rental, error) {
	price, err := fromDecimal128(d.RentalPrice)
	if err != nil {
		return models.Rental{}, err
	}
	return models.Rental{
		ID:          d.ID,
		ProductID:   d.ProductID,
		RenterID:    d.RenterID,
		ClientID:    d.ClientID,
		StartDate:   d.StartDate.UTC(),
		EndDate:     d.EndDate.UTC(),
		RentalPrice: price,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

type RentalRepository struct {
	coll *mongo.Collection
}

func (r *RentalRepository) CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error) {
	doc, err := newRentalDoc(rental)
	if err != nil {
		return models.Rental{}, err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return models.Rental{}, translate(err, "create rental")
	}
	return rental, nil
}

func (r *RentalRepository) GetRentalByID(ctx context.Context, id string) (models.Rental, error) {
	var doc rentalDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return models.Rental{}, translate(err, "get rental")
	}
	return doc.model()
}

// rentalQuery translates a listing filter into a MongoDB query document.
func rentalQuery(f models.RentalFilter) bson.M {
	query := bson.M{}
	if f.ProductID != "" {
		query["productId"] = f.ProductID
	}
	if f.RenterID != "" {
		query["renterId"] = f.RenterID
	}
	if f.ClientID != "" {
		query["clientId"] = f.ClientID
	}
	if f.StartDate != nil {
		query["startDate"] = f.StartDate.UTC()
	}
	if f.EndDate != nil {
		query["endDate"] = f.EndDate.UTC()
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.VisibleTo != "" {
		query["$or"] = bson.A{
			bson.M{"renterId": f.VisibleTo},
			bson.M{"clientId": f.VisibleTo},
		}
	}
	return query
}

func overlapQuery(productID string, start, end time.Time, excludeID string) bson.M {
	return bson.M{
		"productId": productID,
		"status":    models.RentalActive,
		"startDate": bson.M{"$lt": end.UTC()},
		"endDate":   bson.M{"$gt": start.UTC()},
		"_id":       bson.M{"$ne": excludeID},
	}
}

func (r *RentalRepository) ListRentals(ctx context.Context, filter models.RentalFilter) ([]models.Rental, error) {
	sort := bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	return r.find(ctx, "list rentals", rentalQuery(filter), sort)
}

func (r *RentalRepository) ListOverlapping(ctx context.Context, productID string, start, end time.Time, excludeID string) ([]models.Rental, error) {
	sort := bson.D{{Key: "startDate", Value: 1}}
	return r.find(ctx, "list overlapping rentals", overlapQuery(productID, start, end, excludeID), sort)
}

func (r *RentalRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Rental, error) {
	query := bson.M{"status": models.RentalActive, "endDate": bson.M{"$lte": now.UTC()}}
	return r.find(ctx, "list expired rentals", query, bson.D{{Key: "endDate", Value: 1}})
}

func (r *RentalRepository) find(ctx context.Context, op string, query bson.M, sort bson.D) ([]models.Rental, error) {
	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(sort))
	if err != nil {
		return nil, translate(err, op)
	}
	var docs []rentalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, op)
	}

	rentals := make([]models.Rental, 0, len(docs))
	for _, d := range docs {
		v, err := d.model()
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, v)
	}
	return rentals, nil
}

func (r *RentalRepository) CountActiveByProduct(ctx context.Context, productID string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"productId": productID, "status": models.RentalActive})
	if err != nil {
		return 0, translate(err, "count active rentals")
	}
	return int(n), nil
}

func (r *RentalRepository) UpdateRental(ctx context.Context, rental models.Rental) error {
	price, err := toDecimal128(rental.RentalPrice)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"startDate":   rental.StartDate,
		"endDate":     rental.EndDate,
		"rentalPrice": price,
		"status":      rental.Status,
		"updatedAt":   rental.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": rental.ID}, update)
	if err != nil {
		return translate(err, "update rental")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update rental")
	}
	return nil
}

func (r *RentalRepository) DeleteRental(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete rental")
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, "delete rental")
	}
	return nil
}
