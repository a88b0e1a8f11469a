package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate clamps page/size to sane bounds and returns the offset and
// limit for the query.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// PageMeta is the pagination envelope handlers attach to list
// responses.
func PageMeta(page, limit int, total int64) map[string]any {
	pages := (total + int64(limit) - 1) / int64(limit)
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": pages,
	}
}
