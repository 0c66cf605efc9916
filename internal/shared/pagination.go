package shared

import (
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 30
	maxPerPage     = 100
)

// PageRequest is the page a listing endpoint was asked for.
type PageRequest struct {
	Page    int
	PerPage int
}

// PageFromRequest reads page and per_page query parameters, clamping them to sane bounds.
func PageFromRequest(r *http.Request) PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return NewPageRequest(page, perPage)
}

// NewPageRequest normalises page numbers.
func NewPageRequest(page, perPage int) PageRequest {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}

// Limit is the SQL LIMIT for the page.
func (p PageRequest) Limit() int { return p.PerPage }

// Offset is the SQL OFFSET for the page.
func (p PageRequest) Offset() int { return (p.Page - 1) * p.PerPage }

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(req PageRequest, total int) Pagination {
	req = NewPageRequest(req.Page, req.PerPage)
	totalPages := int(math.Ceil(float64(total) / float64(req.PerPage)))
	return Pagination{Page: req.Page, PerPage: req.PerPage, Total: total, TotalPages: totalPages}
}

// WriteHeaders exposes the metadata as response headers, keeping the body a plain array.
func (p Pagination) WriteHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Total-Count", strconv.Itoa(p.Total))
	h.Set("X-Page", strconv.Itoa(p.Page))
	h.Set("X-Per-Page", strconv.Itoa(p.PerPage))
	h.Set("X-Total-Pages", strconv.Itoa(p.TotalPages))
}
