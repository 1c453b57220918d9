package remote

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

// User is the identity service's view of a user.
type User struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Nickname string    `json:"nickname"`
	Email    string    `json:"email"`
	Grade    string    `json:"grade"`
	Point    int64     `json:"point"`
}

// UserClient looks users up in the identity service.
type UserClient struct {
	caller *caller
}

func NewUserClient(baseURL string) *UserClient {
	return &UserClient{
		caller: newCaller("user-api", baseURL,
			resultcode.ErrorUserConnection, resultcode.ErrorUserResponse),
	}
}

func (c *UserClient) GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	if err := c.caller.get(ctx, fmt.Sprintf("/v1/users/%s", userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
