package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate turns a 1-based page and a page size into an offset and limit.
// Out of range values fall back to the first page and the default size.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// Page is the inverse of Calculate.
func Page(from, limit int) int {
	if limit <= 0 {
		return 1
	}
	return from/limit + 1
}
