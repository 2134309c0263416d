package shared

import (
	"math"
	"net/http"
	"strconv"
)

// DefaultPerPage matches the listing page size used across the suite.
const DefaultPerPage = 50

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"currentPage"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageFromRequest reads page/limit query parameters, applying defaults.
func PageFromRequest(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if perPage <= 0 || perPage > 200 {
		perPage = DefaultPerPage
	}
	return page, perPage
}

// Offset converts page metadata to a SQL offset.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
