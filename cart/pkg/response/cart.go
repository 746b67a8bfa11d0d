package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	UserID    uuid.UUID       `json:"user_id"`
	CartItems []CartItem      `json:"cart_items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}

type CartItem struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"productname"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int32           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
