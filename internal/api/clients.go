package api

import (
	"context"
	"fmt"
)

// ClientRecord is a counterparty synced from 1C (a customer, not the HTTP
// client).
type ClientRecord struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Code1C    string  `json:"code_1c,omitempty"`
	INN       string  `json:"inn,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Email     string  `json:"email,omitempty"`
	Address   string  `json:"address,omitempty"`
	Project   int     `json:"project,omitempty"`
	IsActive  bool    `json:"is_active"`
	Images    []Image `json:"images,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// ClientInput is the writable subset of ClientRecord.
type ClientInput struct {
	Name     string `json:"name"`
	INN      string `json:"inn,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
	Project  int    `json:"project,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (c *Client) ListClients(ctx context.Context, opts ListOpts) (Page[ClientRecord], error) {
	return list[ClientRecord](ctx, c, "/client/", opts)
}

func (c *Client) GetClient(ctx context.Context, id int) (ClientRecord, error) {
	var rec ClientRecord
	err := c.get(ctx, fmt.Sprintf("/client/%d/", id), nil, &rec)
	return rec, err
}

func (c *Client) CreateClient(ctx context.Context, in ClientInput) (ClientRecord, error) {
	var rec ClientRecord
	err := c.post(ctx, "/client/", in, &rec)
	return rec, err
}

func (c *Client) UpdateClient(ctx context.Context, id int, in ClientInput) (ClientRecord, error) {
	var rec ClientRecord
	err := c.patch(ctx, fmt.Sprintf("/client/%d/", id), in, &rec)
	return rec, err
}

func (c *Client) DeleteClient(ctx context.Context, id int) error {
	return c.del(ctx, fmt.Sprintf("/client/%d/", id))
}
