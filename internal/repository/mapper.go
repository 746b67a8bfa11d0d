package repository

import (
	"github.com/shopspring/decimal"

	cartResponse "github.com/nandias/storefront/cart/pkg/response"
	productResponse "github.com/nandias/storefront/product/pkg/response"
	userResponse "github.com/nandias/storefront/user/pkg/response"
)

func (p Product) Response() productResponse.Product {
	return productResponse.Product{
		ID:          p.ID,
		ProductName: p.Name,
		Description: p.Description.String,
		Price:       decimal.NewFromBigInt(p.Price.Int, p.Price.Exp),
	}
}

func (f FindCartItemsByCartIdRow) Response() cartResponse.CartItem {
	price := decimal.NewFromBigInt(f.Price.Int, f.Price.Exp)
	return cartResponse.CartItem{
		ID:          f.ID,
		ProductID:   f.ProductID,
		ProductName: f.Name,
		Price:       price,
		Quantity:    f.Quantity,
		LineTotal:   price.Mul(decimal.NewFromInt32(f.Quantity)),
	}
}

func (u User) Response() userResponse.User {
	return userResponse.User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
