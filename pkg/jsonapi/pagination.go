package jsonapi

import (
	"net/url"
	"strconv"
)

// MaxPerPage caps the page size accepted from a query.
const MaxPerPage = 100

// Pagination holds pagination information for generating links and metadata.
type Pagination struct {
	Total   int    // Total number of items
	Page    int    // Current page number (1-based)
	PerPage int    // Items per page
	BaseURL string // Base URL for generating links
}

// NewPagination creates a new Pagination instance.
func NewPagination(total, page, perPage int, baseURL string) *Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return &Pagination{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		BaseURL: baseURL,
	}
}

// TotalPages returns the total number of pages, at least one.
func (p *Pagination) TotalPages() int {
	pages := (p.Total + p.PerPage - 1) / p.PerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

// HasPrev returns true if there is a previous page.
func (p *Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext returns true if there is a next page.
func (p *Pagination) HasNext() bool {
	return p.Page < p.TotalPages()
}

// Window returns the bounds of the current page within n items, clamped so
// that items[lo:hi] is always valid.
func (p *Pagination) Window(n int) (lo, hi int) {
	lo = (p.Page - 1) * p.PerPage
	if lo > n {
		lo = n
	}
	hi = lo + p.PerPage
	if hi > n {
		hi = n
	}
	return lo, hi
}

// Links generates pagination links.
func (p *Pagination) Links() *Links {
	links := &Links{
		Self:  p.buildURL(p.Page),
		First: p.buildURL(1),
		Last:  p.buildURL(p.TotalPages()),
	}
	if p.HasPrev() {
		links.Prev = p.buildURL(p.Page - 1)
	}
	if p.HasNext() {
		links.Next = p.buildURL(p.Page + 1)
	}
	return links
}

func (p *Pagination) buildURL(page int) string {
	if p.BaseURL == "" {
		return ""
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return p.BaseURL
	}

	q := u.Query()
	q.Set("page[number]", strconv.Itoa(page))
	q.Set("page[size]", strconv.Itoa(p.PerPage))
	u.RawQuery = q.Encode()
	return u.String()
}

// Meta returns pagination metadata.
func (p *Pagination) Meta() Meta {
	return Meta{
		"total":    p.Total,
		"page":     p.Page,
		"per_page": p.PerPage,
		"pages":    p.TotalPages(),
	}
}

// ParsePaginationParams extracts pagination parameters from a URL query.
// page[number] and page[size] take precedence over page and per_page.
func ParsePaginationParams(query url.Values, defaultPerPage int) (page, perPage int) {
	page = positive(query, 1, "page[number]", "page")
	perPage = positive(query, defaultPerPage, "page[size]", "per_page")
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// positive returns the first positive integer among keys, or def.
func positive(query url.Values, def int, keys ...string) int {
	for _, key := range keys {
		if n, err := strconv.Atoi(query.Get(key)); err == nil && n > 0 {
			return n
		}
	}
	return def
}
