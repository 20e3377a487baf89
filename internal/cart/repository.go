package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgmongo "github.com/angelmondragon/shopcart-backend/pkg/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      string             `bson:"user"`
	Items     []lineDocument     `bson:"items"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type lineDocument struct {
	ItemID   primitive.ObjectID `bson:"itemId"`
	Quantity int                `bson:"quantity"`
}

func (d cartDocument) toCart() *Cart {
	items := make([]LineItem, 0, len(d.Items))
	for _, line := range d.Items {
		items = append(items, LineItem{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	return &Cart{
		ID:        d.ID,
		UserID:    d.User,
		Items:     items,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func lineDocuments(items []LineItem) []lineDocument {
	out := make([]lineDocument, 0, len(items))
	for _, line := range items {
		out = append(out, lineDocument{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	return out
}

// MongoRepository stores carts in the carts collection.
type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoRepository constructs a cart repo bound to the carts collection.
func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureIndexes creates the unique index that keeps one cart per user.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("carts_user_unique"),
	})
	if err != nil {
		return fmt.Errorf("create cart indexes: %w", err)
	}
	return nil
}

// FindByUser loads the user's cart or returns ErrCartNotFound.
func (r *MongoRepository) FindByUser(ctx context.Context, userID string) (*Cart, error) {
	var doc cartDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "user", Value: userID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toCart(), nil
}

// Save inserts a cart that has never been stored, or conditionally updates
// one that has. Documents written before carts were versioned have no
// version field; they load as version 0 and take version 1 on their first save.
func (r *MongoRepository) Save(ctx context.Context, c *Cart) error {
	now := r.now()
	if c.ID.IsZero() {
		return r.insert(ctx, c, now)
	}

	res, err := r.coll.UpdateOne(ctx,
		versionFilter(c),
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "items", Value: lineDocuments(c.Items)},
				{Key: "updatedAt", Value: now},
			}},
			{Key: "$inc", Value: bson.D{{Key: "version", Value: int64(1)}}},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	c.Version++
	c.UpdatedAt = now
	return nil
}

func versionFilter(c *Cart) bson.D {
	if c.Version == 0 {
		// $in with null matches a missing field.
		return bson.D{
			{Key: "_id", Value: c.ID},
			{Key: "version", Value: bson.D{{Key: "$in", Value: bson.A{nil, int64(0)}}}},
		}
	}
	return bson.D{{Key: "_id", Value: c.ID}, {Key: "version", Value: c.Version}}
}

func (r *MongoRepository) insert(ctx context.Context, c *Cart, now time.Time) error {
	doc := cartDocument{
		ID:        primitive.NewObjectID(),
		User:      c.UserID,
		Items:     lineDocuments(c.Items),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if pkgmongo.IsDuplicateKey(err) {
			return ErrVersionConflict
		}
		return err
	}
	c.ID = doc.ID
	c.Version = doc.Version
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}
