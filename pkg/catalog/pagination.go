package catalog

import "math"

// Page size bounds
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a 1-based page-number request
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest clamps size into [1, MaxPageSize], falling back to the
// default for non-positive values. The page number is kept as given.
func NewPageRequest(page, size int) PageRequest {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, PageSize: size}
}

// Offset returns the number of rows to skip. Offsets past math.MaxInt are
// clamped to it.
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	if p.PageSize > 0 && p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of rows on the page
func (p PageRequest) Limit() int {
	return p.PageSize
}

// PageCount returns the number of pages for count rows. An empty result
// still has one (empty) page.
func (p PageRequest) PageCount(count int) int {
	if count <= 0 {
		return 1
	}
	return (count + p.PageSize - 1) / p.PageSize
}

// ValidFor reports whether the page exists for count rows
func (p PageRequest) ValidFor(count int) bool {
	return p.Page >= 1 && p.Page <= p.PageCount(count)
}

// HasNext reports whether a page follows this one
func (p PageRequest) HasNext(count int) bool {
	return p.Page < p.PageCount(count)
}

// HasPrevious reports whether a page precedes this one
func (p PageRequest) HasPrevious() bool {
	return p.Page > 1
}

// Page is one page of recipe summaries
type Page struct {
	Count   int
	Results []RecipeSummary
}
