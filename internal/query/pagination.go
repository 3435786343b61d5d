package query

// DefaultPerPage is the page size used when none is given.
const DefaultPerPage = 15

// PageLimitOffset converts page-based paging into limit and offset.
type PageLimitOffset struct {
	PerPage int
	Page    int
}

// NewPageLimitOffset applies defaults: perPage below 1 becomes
// DefaultPerPage and page below 1 becomes 1.
func NewPageLimitOffset(perPage, page int) PageLimitOffset {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}
	return PageLimitOffset{PerPage: perPage, Page: page}
}

// Limit returns the page size.
func (p PageLimitOffset) Limit() int {
	return p.PerPage
}

// Offset returns the number of rows skipped before the page.
func (p PageLimitOffset) Offset() int {
	return (p.Page - 1) * p.PerPage
}
