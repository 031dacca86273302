package api

import (
	"context"
	"fmt"
	"io"
)

// Nomenklatura is a catalog item, keyed in 1C by its code.
type Nomenklatura struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Article     string  `json:"article,omitempty"`
	Code1C      string  `json:"code_1c,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Project     int     `json:"project,omitempty"`
	IsActive    bool    `json:"is_active"`
	Images      []Image `json:"images,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// NomenklaturaInput is the writable subset of Nomenklatura.
type NomenklaturaInput struct {
	Name        string  `json:"name"`
	Article     string  `json:"article,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Project     int     `json:"project,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// XLSXImportResult reports the outcome of a spreadsheet import.
type XLSXImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

func (c *Client) ListNomenklatura(ctx context.Context, opts ListOpts) (Page[Nomenklatura], error) {
	return list[Nomenklatura](ctx, c, "/nomenklatura/", opts)
}

func (c *Client) GetNomenklatura(ctx context.Context, id int) (Nomenklatura, error) {
	var n Nomenklatura
	err := c.get(ctx, fmt.Sprintf("/nomenklatura/%d/", id), nil, &n)
	return n, err
}

func (c *Client) CreateNomenklatura(ctx context.Context, in NomenklaturaInput) (Nomenklatura, error) {
	var n Nomenklatura
	err := c.post(ctx, "/nomenklatura/", in, &n)
	return n, err
}

func (c *Client) UpdateNomenklatura(ctx context.Context, id int, in NomenklaturaInput) (Nomenklatura, error) {
	var n Nomenklatura
	err := c.patch(ctx, fmt.Sprintf("/nomenklatura/%d/", id), in, &n)
	return n, err
}

func (c *Client) DeleteNomenklatura(ctx context.Context, id int) error {
	return c.del(ctx, fmt.Sprintf("/nomenklatura/%d/", id))
}

// ImportNomenklaturaXLSX uploads a spreadsheet for bulk import.
func (c *Client) ImportNomenklaturaXLSX(ctx context.Context, filename string, r io.Reader) (XLSXImportResult, error) {
	var res XLSXImportResult
	files := []FilePart{{Field: "file", Filename: filename, Reader: r}}
	err := c.postMultipart(ctx, "/nomenklatura/import-xlsx/", nil, files, &res)
	return res, err
}

// ExportNomenklaturaXLSX downloads the catalog as a spreadsheet.
func (c *Client) ExportNomenklaturaXLSX(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := c.get(ctx, "/nomenklatura/export-xlsx/", nil, &raw)
	return raw, err
}

// NomenklaturaTemplateXLSX downloads the empty import template.
func (c *Client) NomenklaturaTemplateXLSX(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := c.get(ctx, "/nomenklatura/template-xlsx/", nil, &raw)
	return raw, err
}
