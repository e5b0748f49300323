// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by paged list endpoints.
const PageSize = 50

// MaxPageSize caps client-requested page sizes.
const MaxPageSize = 200

// ParseLimit extracts the "limit" query parameter, clamped to
// [1, MaxPageSize]. Returns PageSize if absent or invalid.
func ParseLimit(r *http.Request) int64 {
	s := query.Get(r, "limit")
	if s == "" {
		return PageSize
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return PageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return int64(n)
}

// ParseOffset extracts the "offset" query parameter. Returns 0 if absent
// or invalid.
func ParseOffset(r *http.Request) int64 {
	s := query.Get(r, "offset")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return int64(n)
}
