package request

import (
	"github.com/google/uuid"
)

type AddCartItem struct {
	UserId    uuid.UUID `json:"user_id"    validate:"required"`
	ProductId uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int32     `json:"quantity"   validate:"required,gt=0"`
}

type RemoveCartItem struct {
	UserId     uuid.UUID `json:"user_id"      validate:"required"`
	CartItemId uuid.UUID `json:"cart_item_id" validate:"required"`
}
