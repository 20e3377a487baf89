package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item is a purchasable catalog entry. Carts only ever read items.
type Item struct {
	ID          primitive.ObjectID
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// itemDocument is the stored shape of an Item in the items collection.
type itemDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Price       float64            `bson:"price"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d itemDocument) toItem() Item {
	return Item{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Price:       decimal.NewFromFloat(d.Price),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func newItemDocument(item Item) itemDocument {
	return itemDocument{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       item.Price.InexactFloat64(),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// ItemDTO is the JSON shape returned by GET /items.
type ItemDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewItemDTO converts a catalog item into its response payload.
func NewItemDTO(item Item) ItemDTO {
	return ItemDTO{
		ID:          item.ID.Hex(),
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       item.Price.InexactFloat64(),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
