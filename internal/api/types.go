package api

import (
	"fmt"
	"net/url"
)

// Page is the paginated list envelope returned by every collection endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// TotalPages returns the page count for a collection, ceiling division.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ListOpts carries common collection parameters. Zero values are omitted
// from the query string, letting the server apply its defaults.
type ListOpts struct {
	Page     int
	PageSize int
	Search   string
	Ordering string
	Filters  map[string]string
}

func (o ListOpts) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", fmt.Sprint(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", fmt.Sprint(o.PageSize))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Ordering != "" {
		q.Set("ordering", o.Ordering)
	}
	for k, v := range o.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}
