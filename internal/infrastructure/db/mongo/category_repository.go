package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const collectionCategories = "categories"

type CategoryRepository struct {
	col *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{col: db.Collection(collectionCategories)}
}

type mongoCategory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (c *mongoCategory) toDomain() *domain.Category {
	return &domain.Category{
		ID:          c.ID.Hex(),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.UTC(),
	}
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoCategory{
		ID:          primitive.NewObjectID(),
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   now(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc mongoCategory
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CategoryRepository) Update(ctx context.Context, id string, upd ports.CategoryUpdate) (*domain.Category, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoCategory
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var docs []mongoCategory
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	out := make([]*domain.Category, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// UpsertByName inserts a bare category unless one with the same name exists.
// Inserted documents are marked as seeded; a unique index over seeded names
// turns a concurrent duplicate insert into a no-op.
func (r *CategoryRepository) UpsertByName(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": bson.M{"name": name, "seeded": true, "created_at": now()}},
		options.Update().SetUpsert(true),
	)
	if err = ignoreDuplicate(err); err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

// ignoreDuplicate treats a duplicate key error as success.
func ignoreDuplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// categoryIndexes returns a lookup index on name and a unique index on the
// names of seeded categories. Categories created through the API may share a
// name.
func categoryIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{
			Keys: bson.D{{Key: "name", Value: 1}, {Key: "seeded", Value: 1}},
			Options: options.Index().
				SetName("seeded_name_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"seeded": true}),
		},
	}
}

func (r *CategoryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, categoryIndexes())
	return err
}
