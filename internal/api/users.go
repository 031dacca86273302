package api

import (
	"context"
	"fmt"
)

// User is a backend account (admins, operators, field agents).
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
	IsStaff   bool   `json:"is_staff"`
	IsActive  bool   `json:"is_active"`
}

// UserInput is the writable subset of User.
type UserInput struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context, opts ListOpts) (Page[User], error) {
	return list[User](ctx, c, "/users/", opts)
}

func (c *Client) GetUser(ctx context.Context, id int) (User, error) {
	var u User
	err := c.get(ctx, fmt.Sprintf("/users/%d/", id), nil, &u)
	return u, err
}

func (c *Client) UpdateUser(ctx context.Context, id int, in UserInput) (User, error) {
	var u User
	err := c.patch(ctx, fmt.Sprintf("/users/%d/", id), in, &u)
	return u, err
}
