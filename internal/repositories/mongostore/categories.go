package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"renTrentoBack/internal/models"
)

type categoryDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d categoryDoc) model() models.Category {
	return models.Category{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt.UTC()}
}

type CategoryRepository struct {
	coll *mongo.Collection
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category models.Category) (models.Category, error) {
	doc := categoryDoc{ID: category.ID, Name: category.Name, CreatedAt: category.CreatedAt}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return models.Category{}, translate(err, "create category")
	}
	return category, nil
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id string) (models.Category, error) {
	return r.findOne(ctx, "get category", bson.M{"_id": id})
}

func (r *CategoryRepository) GetCategoryByName(ctx context.Context, name string) (models.Category, error) {
	return r.findOne(ctx, "get category by name", bson.M{"name": name})
}

func (r *CategoryRepository) findOne(ctx context.Context, op string, filter bson.M) (models.Category, error) {
	var doc categoryDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.Category{}, translate(err, op)
	}
	return doc.model(), nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "list categories")
	}
	categories := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		categories = append(categories, d.model())
	}
	return categories, nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete category")
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, "delete category")
	}
	return nil
}
