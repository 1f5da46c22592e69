// Package utils holds tiny helpers with no knowledge of listings, posts, or
// transport concerns.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or not a
// number. The list handlers use it for page and page_size query parameters
// so a bad value falls back to the default instead of failing the request.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
