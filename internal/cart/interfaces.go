package cart

import (
	"context"
	"errors"

	"github.com/angelmondragon/shopcart-backend/internal/catalog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrCartNotFound is returned by repositories when the user has no cart.
	ErrCartNotFound = errors.New("cart not found")
	// ErrVersionConflict is returned by Save when the stored cart changed (or
	// was created) since it was loaded.
	ErrVersionConflict = errors.New("cart version conflict")
)

// Repository persists carts, one per user.
type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	// Save inserts a cart that has no ID yet or updates one whose stored
	// version still equals c.Version. On success c.Version, c.ID and the timestamps
	// reflect the stored document.
	Save(ctx context.Context, c *Cart) error
}

// CatalogReader resolves the items referenced by cart lines.
type CatalogReader interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]catalog.Item, error)
}
