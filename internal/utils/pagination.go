// Package utils provides small helpers shared across layers, currently the
// pagination parsing used by the claim listing endpoints.
package utils

import "strconv"

// Pagination bounds for list endpoints. A page of 100 claims is already more
// than any screen renders; larger requests are clamped, not rejected.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AtoiDefault converts a string to an int, returning def when the string is
// empty or not an integer.
//
//	utils.AtoiDefault("42", 0) // 42
//	utils.AtoiDefault("", 10)  // 10
//	utils.AtoiDefault("x", 5)  // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageQuery parses page and page_size query values into bounded pagination
// parameters. Missing or malformed values fall back to the defaults, page is
// floored at 1, and page_size is clamped to [1, MaxPageSize].
func PageQuery(pageStr, sizeStr string) (page, pageSize int) {
	page = AtoiDefault(pageStr, DefaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = AtoiDefault(sizeStr, DefaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return
}
