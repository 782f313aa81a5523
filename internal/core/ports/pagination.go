package ports

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page selects a 1-based page of results.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies defaults and caps the limit at MaxPageLimit.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ListResult is one page of items plus the total match count.
type ListResult[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewListResult assembles a ListResult for page p.
func NewListResult[T any](items []T, total int64, p Page) *ListResult[T] {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	if items == nil {
		items = []T{}
	}
	return &ListResult[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}
