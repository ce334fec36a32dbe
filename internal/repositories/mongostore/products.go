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

type productDoc struct {
	ID          string               `bson:"_id"`
	OwnerID     string               `bson:"ownerId"`
	OwnerName   string               `bson:"ownerName"`
	Name        string               `bson:"name"`
	Category    string               `bson:"category"`
	Description string               `bson:"description"`
	PricePerDay primitive.Decimal128 `bson:"pricePerDay"`
	PickUpPoint string               `bson:"pickUpPoint"`
	ImageURL    string               `bson:"imageUrl"`
	Status      string               `bson:"status"`
	LockVersion int64                `bson:"lockVersion"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func newProductDoc(p models.Product) (productDoc, error) {
	price, err := toDecimal128(p.PricePerDay)
	if err != nil {
		return productDoc{}, err
	}
	return productDoc{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		OwnerName:   p.OwnerName,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		PricePerDay: price,
		PickUpPoint: p.PickUpPoint,
		ImageURL:    p.ImageURL,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (d productDoc) model() (models.Product, error) {
	price, err := fromDecimal128(d.PricePerDay)
	if err != nil {
		return models.Product{}, err
	}
	return models.Product{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		OwnerName:   d.OwnerName,
		Name:        d.Name,
		Category:    d.Category,
		Description: d.Description,
		PricePerDay: price,
		PickUpPoint: d.PickUpPoint,
		ImageURL:    d.ImageURL,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

type ProductRepository struct {
	coll *mongo.Collection
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	doc, err := newProductDoc(product)
	if err != nil {
		return models.Product{}, err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return models.Product{}, translate(err, "create product")
	}
	return product, nil
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (models.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return models.Product{}, translate(err, "get product")
	}
	return doc.model()
}

// GetProductByIDForUpdate writes to the product document so that two
// transactions booking the same product hit a write conflict.
func (r *ProductRepository) GetProductByIDForUpdate(ctx context.Context, id string) (models.Product, error) {
	var doc productDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"lockVersion": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return models.Product{}, translate(err, "lock product")
	}
	return doc.model()
}

func (r *ProductRepository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.OwnerID != "" {
		query["ownerId"] = filter.OwnerID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, translate(err, "list products")
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "list products")
	}

	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.model()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product models.Product) error {
	price, err := toDecimal128(product.PricePerDay)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"category":    product.Category,
		"description": product.Description,
		"pricePerDay": price,
		"pickUpPoint": product.PickUpPoint,
		"imageUrl":    product.ImageURL,
		"status":      product.Status,
		"updatedAt":   product.UpdatedAt,
	}}
	return r.updateOne(ctx, "update product", product.ID, update)
}

func (r *ProductRepository) SetProductStatus(ctx context.Context, id, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	return r.updateOne(ctx, "set product status", id, update)
}

func (r *ProductRepository) updateOne(ctx context.Context, op, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err, op)
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, op)
	}
	return nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, "delete product")
	}
	return nil
}
