package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nandias/storefront/product/pkg/request"
	userRequest "github.com/nandias/storefront/user/pkg/request"
)

func TestValidateProduct(t *testing.T) {
	validate := New()

	err := validate.Struct(request.Product{
		ProductName: "Wrench",
		Description: "adjustable",
		Price:       decimal.RequireFromString("10.50"),
	})
	assert.NoError(t, err, "a valid product should pass")

	err = validate.Struct(request.Product{
		ProductName: "Wrench",
		Price:       decimal.RequireFromString("-1"),
	})
	assert.Error(t, err, "a negative price should fail")
	fields := Fields(err)
	assert.Len(t, fields, 1)
	assert.Equal(t, "price", fields[0].Field)
	assert.Equal(t, "must be a non-negative number", fields[0].Message)

	err = validate.Struct(request.Product{
		ProductName: "Free",
		Price:       decimal.Zero,
	})
	assert.NoError(t, err, "a zero price should pass")
}

func TestValidateRegister(t *testing.T) {
	validate := New()

	err := validate.Struct(userRequest.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	assert.NoError(t, err, "a valid registration should pass")

	err = validate.Struct(userRequest.Register{
		Username:  "carol",
		Email:     "not-an-email",
		Password:  "s3cret-password",
		Password2: "s3cret-password",
	})
	fields := Fields(err)
	assert.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].Field)
	assert.Equal(t, "must be a valid email address", fields[0].Message)

	err = validate.Struct(userRequest.Register{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "short",
		Password2: "short",
	})
	fields = Fields(err)
	assert.Len(t, fields, 1)
	assert.Equal(t, "password", fields[0].Field)
}

func TestFieldsNonValidationError(t *testing.T) {
	fields := Fields(assert.AnError)
	assert.Len(t, fields, 1)
	assert.Equal(t, "", fields[0].Field)
	assert.Equal(t, assert.AnError.Error(), fields[0].Message)

	assert.Nil(t, Fields(nil), "nil error should map to no fields")
}
