package errors

import (
	"errors"
)

var (
	ErrEmptyAuth         = errors.New("missing authorization")
	ErrEmptySubject      = errors.New("missing subject")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenRevoked      = errors.New("token is revoked")
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username is already taken")
	ErrEmailTaken        = errors.New("email is already taken")
	ErrPasswordMismatch  = errors.New("password fields didn't match")
	ErrWrongPassword     = errors.New("wrong password")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrCartItemForbidden = errors.New("cart item does not belong to the user")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
)
