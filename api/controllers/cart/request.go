package cart

import cartsvc "github.com/angelmondragon/shopcart-backend/internal/cart"

// AddItemRequest is the body of POST /cart/add.
type AddItemRequest struct {
	ItemID   string `json:"itemId" validate:"required" message:"itemId is required"`
	Quantity *int   `json:"quantity,omitempty" validate:"omitempty,min=0" message:"quantity must be a positive integer"`
}

// UpdateQuantityRequest is the body of PATCH /cart/update/{itemId}.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=1" message:"Invalid quantity"`
}

func toAddItemInput(payload AddItemRequest) cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ItemID:   payload.ItemID,
		Quantity: payload.Quantity,
	}
}
