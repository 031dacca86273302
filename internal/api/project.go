package api

import (
	"context"
	"fmt"
)

// Project groups nomenklatura and clients under one catalog.
type Project struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	IsActive    bool    `json:"is_active"`
	Images      []Image `json:"images,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// ProjectInput is the writable subset of Project.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

func (c *Client) ListProjects(ctx context.Context, opts ListOpts) (Page[Project], error) {
	return list[Project](ctx, c, "/project/", opts)
}

func (c *Client) GetProject(ctx context.Context, id int) (Project, error) {
	var p Project
	err := c.get(ctx, fmt.Sprintf("/project/%d/", id), nil, &p)
	return p, err
}

func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	var p Project
	err := c.post(ctx, "/project/", in, &p)
	return p, err
}

func (c *Client) UpdateProject(ctx context.Context, id int, in ProjectInput) (Project, error) {
	var p Project
	err := c.patch(ctx, fmt.Sprintf("/project/%d/", id), in, &p)
	return p, err
}

func (c *Client) DeleteProject(ctx context.Context, id int) error {
	return c.del(ctx, fmt.Sprintf("/project/%d/", id))
}
