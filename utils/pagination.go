package utils

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a zero-based page index and a page size
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of rows to skip
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// ParsePageRequest reads ?page=&size= from the query string. Missing or
// invalid values fall back to the first page of DefaultPageSize; size is
// capped at MaxPageSize and page is capped so Offset cannot overflow.
func ParsePageRequest(r *http.Request) PageRequest {
	q := r.URL.Query()
	req := PageRequest{Page: 0, Size: DefaultPageSize}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 0 {
		req.Page = v
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil && v > 0 {
		req.Size = v
	}
	if req.Size > MaxPageSize {
		req.Size = MaxPageSize
	}
	if maxPage := math.MaxInt / req.Size; req.Page > maxPage {
		req.Page = maxPage
	}
	return req
}
