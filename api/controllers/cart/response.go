package cart

import cartsvc "github.com/angelmondragon/shopcart-backend/internal/cart"

const (
	messageItemAdded       = "Item added to cart"
	messageItemRemoved     = "Item removed"
	messageQuantityUpdated = "Quantity updated"
)

type addItemResponse struct {
	Message string           `json:"message"`
	Cart    *cartsvc.CartDTO `json:"cart"`
}

type updateQuantityResponse struct {
	Message string                  `json:"message"`
	Items   []cartsvc.PricedLineDTO `json:"items"`
}

type removeItemResponse struct {
	Message string                `json:"message"`
	Items   []cartsvc.LineItemDTO `json:"items"`
}
