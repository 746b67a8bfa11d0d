package response

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"productname"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}
