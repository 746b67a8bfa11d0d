package request

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ProductName string          `json:"productname" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"       validate:"price"`
}
