package cart

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineItem is one (item, quantity) pair in a cart. Quantity is always >= 1.
type LineItem struct {
	ItemID   primitive.ObjectID
	Quantity int
}

// Cart is the single cart owned by a user. Version increases on every
// successful save and guards against lost concurrent writes.
type Cart struct {
	ID        primitive.ObjectID
	UserID    string
	Items     []LineItem
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cart) indexOf(itemID primitive.ObjectID) int {
	for i, line := range c.Items {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}

// add merges quantity into an existing line or appends a new one. It reports
// false, leaving the cart untouched, when the merged quantity would overflow.
func (c *Cart) add(itemID primitive.ObjectID, quantity int) bool {
	if i := c.indexOf(itemID); i >= 0 {
		if c.Items[i].Quantity > math.MaxInt-quantity {
			return false
		}
		c.Items[i].Quantity += quantity
		return true
	}
	c.Items = append(c.Items, LineItem{ItemID: itemID, Quantity: quantity})
	return true
}

// remove drops every line for itemID. It reports whether anything changed.
func (c *Cart) remove(itemID primitive.ObjectID) bool {
	kept := c.Items[:0]
	for _, line := range c.Items {
		if line.ItemID != itemID {
			kept = append(kept, line)
		}
	}
	changed := len(kept) != len(c.Items)
	c.Items = kept
	return changed
}

// PricedLine is a line enriched with the item's current catalog data.
type PricedLine struct {
	ItemID      primitive.ObjectID
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Total       decimal.Decimal
}

// LineItemDTO is the unpriced JSON shape of a line.
type LineItemDTO struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// CartDTO is the unpriced JSON shape of a cart.
type CartDTO struct {
	ID        string        `json:"id"`
	User      string        `json:"user"`
	Items     []LineItemDTO `json:"items"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PricedLineDTO is the JSON shape of a priced line.
type PricedLineDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Total       float64 `json:"total"`
}

// PricedCartDTO is the response of GET /cart.
type PricedCartDTO struct {
	User  string          `json:"user"`
	Items []PricedLineDTO `json:"items"`
}

// NewLineItemDTOs converts lines to their JSON shape. The result is never nil.
func NewLineItemDTOs(lines []LineItem) []LineItemDTO {
	out := make([]LineItemDTO, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineItemDTO{ItemID: line.ItemID.Hex(), Quantity: line.Quantity})
	}
	return out
}

// NewCartDTO converts a cart to its unpriced JSON shape.
func NewCartDTO(c *Cart) *CartDTO {
	return &CartDTO{
		ID:        c.ID.Hex(),
		User:      c.UserID,
		Items:     NewLineItemDTOs(c.Items),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewPricedLineDTOs converts priced lines to their JSON shape. The result is
// never nil.
func NewPricedLineDTOs(lines []PricedLine) []PricedLineDTO {
	out := make([]PricedLineDTO, 0, len(lines))
	for _, line := range lines {
		out = append(out, PricedLineDTO{
			ID:          line.ItemID.Hex(),
			Name:        line.Name,
			Description: line.Description,
			Price:       line.Price.InexactFloat64(),
			Quantity:    line.Quantity,
			Total:       line.Total.InexactFloat64(),
		})
	}
	return out
}
