package catalog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the persistence surface the catalog and the cart depend on.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Item, error)
}

// Repository persists items in a Mongo collection.
type Repository struct {
	coll *mongo.Collection
}

// NewRepository constructs a catalog repo bound to the items collection.
func NewRepository(coll *mongo.Collection) *Repository {
	return &Repository{coll: coll}
}

// EnsureIndexes creates the indexes used by the browse query.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create item indexes: %w", err)
	}
	return nil
}

// List returns the items matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter.BSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []itemDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toItem())
	}
	return items, nil
}

// FindByIDs loads the items with the given ids. Unknown ids are absent from
// the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Item, error) {
	out := make(map[primitive.ObjectID]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc itemDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out[doc.ID] = doc.toItem()
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceAll deletes every item and inserts the provided ones. Missing ids and
// timestamps are filled in; the stored items are returned.
func (r *Repository) ReplaceAll(ctx context.Context, items []Item) ([]Item, error) {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("clear items: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	stored := make([]Item, len(items))
	docs := make([]any, len(items))
	for i, item := range items {
		if item.ID.IsZero() {
			item.ID = primitive.NewObjectID()
		}
		if item.CreatedAt.IsZero() {
			// Distinct timestamps keep the newest-first order stable.
			item.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = item.CreatedAt
		}
		stored[i] = item
		docs[i] = newItemDocument(item)
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert items: %w", err)
	}
	return stored, nil
}
