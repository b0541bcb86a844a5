package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

const collectionMovements = "stock_movements"

// MovementRepository implements ports.MovementRepository using MongoDB.
type MovementRepository struct {
	db           *mongo.Database
	col          *mongo.Collection
	items        *mongo.Collection
	transactions bool
	log          zerolog.Logger
}

// NewMovementRepository creates a MovementRepository. With transactions
// enabled (requires a replica set) the quantity change and the ledger insert
// commit together; otherwise a failed insert is compensated by reverting the
// quantity change.
func NewMovementRepository(db *mongo.Database, transactions bool, log zerolog.Logger) *MovementRepository {
	return &MovementRepository{
		db:           db,
		col:          db.Collection(collectionMovements),
		items:        db.Collection(collectionItems),
		transactions: transactions,
		log:          log,
	}
}

type mongoMovement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ItemID    primitive.ObjectID `bson:"item_id"`
	ItemName  string             `bson:"item_name,omitempty"`
	ItemUnit  string             `bson:"item_unit,omitempty"`
	Type      string             `bson:"type"`
	Quantity  float64            `bson:"quantity"`
	Reason    string             `bson:"reason,omitempty"`
	CreatedBy string             `bson:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (m *mongoMovement) toDomain() *domain.Movement {
	return &domain.Movement{
		ID:        m.ID.Hex(),
		ItemID:    m.ItemID.Hex(),
		ItemName:  m.ItemName,
		ItemUnit:  m.ItemUnit,
		Type:      domain.MovementType(m.Type),
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// Post atomically applies the movement to its item and appends it to the ledger.
func (r *MovementRepository) Post(ctx context.Context, m *domain.Movement) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	itemID, err := objectID(m.ItemID)
	if err != nil {
		return nil, err
	}

	doc := mongoMovement{
		ID:        primitive.NewObjectID(),
		ItemID:    itemID,
		Type:      string(m.Type),
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		CreatedBy: m.CreatedBy,
		CreatedAt: now(),
	}

	var item *domain.Item
	if r.transactions {
		item, err = r.postInTransaction(ctx, &doc, m.Type.Delta(m.Quantity))
	} else {
		item, err = r.postWithCompensation(ctx, &doc, m.Type.Delta(m.Quantity))
	}
	if err != nil {
		return nil, err
	}

	m.ID = doc.ID.Hex()
	m.CreatedAt = doc.CreatedAt
	return item, nil
}

func (r *MovementRepository) postInTransaction(ctx context.Context, doc *mongoMovement, delta float64) (*domain.Item, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		item, err := r.applyDelta(sc, doc.ItemID, doc.Quantity, delta)
		if err != nil {
			return nil, err
		}
		if _, err := r.col.InsertOne(sc, doc); err != nil {
			return nil, fmt.Errorf("insert movement: %w", err)
		}
		return item, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Item), nil
}

func (r *MovementRepository) postWithCompensation(ctx context.Context, doc *mongoMovement, delta float64) (*domain.Item, error) {
	item, err := r.applyDelta(ctx, doc.ItemID, doc.Quantity, delta)
	if err != nil {
		return nil, err
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		r.revertDelta(ctx, doc.ItemID, delta)
		return nil, fmt.Errorf("insert movement: %w", err)
	}
	return item, nil
}

// revertDelta undoes an applied quantity change. It runs on its own deadline
// so that it still executes when the insert failed because ctx expired.
func (r *MovementRepository) revertDelta(ctx context.Context, itemID primitive.ObjectID, delta float64) {
	ctx, cancel := detachedContext(ctx)
	defer cancel()

	_, err := r.items.UpdateOne(ctx, bson.M{"_id": itemID}, deltaUpdate(-delta, now()))
	if err != nil {
		r.log.Error().Err(err).
			Str("item_id", itemID.Hex()).
			Float64("delta", delta).
			Msg("failed to revert quantity after ledger insert failure")
	}
}

// detachedContext keeps ctx values but drops its cancellation and deadline,
// applying a fresh defaultTimeout.
func detachedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
}

// applyDelta increments the item quantity. Outbound changes only match while
// enough stock remains, so concurrent decrements cannot overdraw.
func (r *MovementRepository) applyDelta(ctx context.Context, itemID primitive.ObjectID, qty, delta float64) (*domain.Item, error) {
	var doc mongoItem
	err := r.items.FindOneAndUpdate(ctx, deltaFilter(itemID, qty, delta), deltaUpdate(delta, now()),
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update quantity: %w", err)
	}

	n, err := r.items.CountDocuments(ctx, bson.M{"_id": itemID})
	if err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	return nil, unmatchedDeltaError(n)
}

// deltaFilter matches the item, and for a decrement only while at least qty
// is on hand.
func deltaFilter(itemID primitive.ObjectID, qty, delta float64) bson.M {
	filter := bson.M{"_id": itemID}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": qty}
	}
	return filter
}

func deltaUpdate(delta float64, at time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"quantity": delta},
		"$set": bson.M{"updated_at": at},
	}
}

// unmatchedDeltaError explains why the guarded update matched nothing, given
// how many documents carry the item id.
func unmatchedDeltaError(itemCount int64) error {
	if itemCount == 0 {
		return domain.ErrItemNotFound
	}
	return domain.ErrInsufficientStock
}

func (r *MovementRepository) FindByID(ctx context.Context, id string) (*domain.Movement, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, domain.ErrMovementNotFound
	}

	out, err := r.aggregate(ctx, bson.M{"_id": oid}, 1)
	if err != nil {
		return nil, fmt.Errorf("find movement: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrMovementNotFound
	}
	return out[0], nil
}

// List returns movements newest first, joined with the item name and unit.
func (r *MovementRepository) List(ctx context.Context, f ports.MovementFilter) ([]*domain.Movement, error) {
	match := bson.M{}
	if f.ItemID != "" {
		oid, err := objectID(f.ItemID)
		if err != nil {
			return nil, err
		}
		match["item_id"] = oid
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		rng := bson.M{}
		if !f.From.IsZero() {
			rng["$gte"] = f.From.UTC()
		}
		if !f.To.IsZero() {
			rng["$lte"] = f.To.UTC()
		}
		match["created_at"] = rng
	}

	out, err := r.aggregate(ctx, match, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}

func (r *MovementRepository) aggregate(ctx context.Context, match bson.M, limit int) ([]*domain.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         collectionItems,
			"localField":   "item_id",
			"foreignField": "_id",
			"as":           "item",
		}}},
		bson.D{{Key: "$set", Value: bson.M{
			"item_name": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$item.name", 0}}, ""}},
			"item_unit": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$item.unit", 0}}, ""}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"item": 0}}},
	)

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var docs []mongoMovement
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*domain.Movement, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *MovementRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
