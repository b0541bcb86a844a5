package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const collectionItems = "items"

type ItemRepository struct {
	col *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection(collectionItems)}
}

// mongoItem is the stored shape. CategoryName is only populated by the read
// pipeline and never written.
type mongoItem struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	CategoryID   primitive.ObjectID `bson:"category_id"`
	CategoryName string             `bson:"category_name,omitempty"`
	Unit         string             `bson:"unit"`
	Quantity     float64            `bson:"quantity"`
	MinQuantity  float64            `bson:"min_quantity"`
	MaxQuantity  *float64           `bson:"max_quantity,omitempty"`
	Supplier     string             `bson:"supplier,omitempty"`
	ExpiryDate   *time.Time         `bson:"expiry_date,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (m *mongoItem) toDomain() *domain.Item {
	it := &domain.Item{
		ID:           m.ID.Hex(),
		Name:         m.Name,
		CategoryID:   m.CategoryID.Hex(),
		CategoryName: m.CategoryName,
		Unit:         m.Unit,
		Quantity:     m.Quantity,
		MinQuantity:  m.MinQuantity,
		MaxQuantity:  m.MaxQuantity,
		Supplier:     m.Supplier,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.ExpiryDate != nil {
		t := m.ExpiryDate.UTC()
		it.ExpiryDate = &t
	}
	return it
}

// withCategoryName joins the category and flattens its name onto the item.
func withCategoryName() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionCategories,
			"localField":   "category_id",
			"foreignField": "_id",
			"as":           "category",
		}}},
		{{Key: "$set", Value: bson.M{
			"category_name": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$category.name", 0}}, ""}},
		}}},
		{{Key: "$project", Value: bson.M{"category": 0}}},
	}
}

func (r *ItemRepository) Create(ctx context.Context, it *domain.Item) (*domain.Item, error) {
	catID, err := objectID(it.CategoryID)
	if err != nil {
		return nil, err
	}

	ts := now()
	doc := mongoItem{
		ID:          primitive.NewObjectID(),
		Name:        it.Name,
		CategoryID:  catID,
		Unit:        it.Unit,
		Quantity:    it.Quantity,
		MinQuantity: it.MinQuantity,
		MaxQuantity: it.MaxQuantity,
		Supplier:    it.Supplier,
		ExpiryDate:  it.ExpiryDate,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	insertCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if _, err := r.col.InsertOne(insertCtx, doc); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	return r.FindByID(ctx, doc.ID.Hex())
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	items, err := r.aggregate(ctx, bson.M{"_id": oid}, nil)
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrItemNotFound
	}
	return items[0], nil
}

func (r *ItemRepository) Update(ctx context.Context, id string, upd ports.ItemUpdate) (*domain.Item, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": now()}
	unset := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.CategoryID != nil {
		catID, err := objectID(*upd.CategoryID)
		if err != nil {
			return nil, err
		}
		set["category_id"] = catID
	}
	if upd.Unit != nil {
		set["unit"] = *upd.Unit
	}
	if upd.Quantity != nil {
		set["quantity"] = *upd.Quantity
	}
	if upd.MinQuantity != nil {
		set["min_quantity"] = *upd.MinQuantity
	}
	if upd.MaxQuantity != nil {
		set["max_quantity"] = *upd.MaxQuantity
	}
	if upd.Supplier != nil {
		set["supplier"] = *upd.Supplier
	}
	if upd.ClearExpiry {
		unset["expiry_date"] = ""
	} else if upd.ExpiryDate != nil {
		set["expiry_date"] = upd.ExpiryDate.UTC()
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	updateCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	res, err := r.col.UpdateOne(updateCtx, bson.M{"_id": oid}, update)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrItemNotFound
	}

	return r.FindByID(ctx, id)
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// List filters by category, low stock and a case-insensitive name substring, sorted by name.
func (r *ItemRepository) List(ctx context.Context, f ports.ItemFilter) ([]*domain.Item, error) {
	match := bson.M{}
	if f.CategoryID != "" {
		catID, err := objectID(f.CategoryID)
		if err != nil {
			return nil, err
		}
		match["category_id"] = catID
	}
	if f.LowStock {
		match["$expr"] = bson.M{"$lte": bson.A{"$quantity", "$min_quantity"}}
	}
	if f.Search != "" {
		match["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}

	items, err := r.aggregate(ctx, match, bson.D{{Key: "name", Value: 1}})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) ExistsByCategory(ctx context.Context, categoryID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := objectID(categoryID)
	if err != nil {
		return false, err
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"category_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count items: %w", err)
	}
	return n > 0, nil
}

func (r *ItemRepository) aggregate(ctx context.Context, match bson.M, sort bson.D) ([]*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	if sort != nil {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	pipeline = append(pipeline, withCategoryName()...)

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var docs []mongoItem
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*domain.Item, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *ItemRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category_id", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
