package response

import (
	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type Register struct {
	User     User   `json:"user"`
	ApiToken string `json:"api_token"`
}
