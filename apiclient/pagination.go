package apiclient

import (
	"net/url"
	"strconv"
)

// PageQuery builds the standard list-endpoint query parameters.
type PageQuery struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	// Filters are endpoint-specific extra parameters (e.g. status=active).
	Filters map[string]string
}

// Values encodes the non-zero fields as query parameters.
func (q PageQuery) Values() url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		values.Set("sortOrder", q.SortOrder)
	}
	for key, value := range q.Filters {
		if key != "" && value != "" {
			values.Set(key, value)
		}
	}
	return values
}

// WithPage applies the page query to a request.
func WithPage(q PageQuery) RequestOption {
	return WithQuery(q.Values())
}

// PageInfo is the pagination block of a list response.
type PageInfo struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is the standard list-response envelope.
type Page[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageInfo `json:"pagination"`
}

// DecodePage decodes a list response into a typed page.
func DecodePage[T any](resp *Response) (Page[T], error) {
	var page Page[T]
	if err := resp.Decode(&page); err != nil {
		return Page[T]{}, err
	}
	return page, nil
}
