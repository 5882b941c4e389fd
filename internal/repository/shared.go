package repository

// Pagination holds pagination parameters for listing entities.
type Pagination struct {
	PageNo   int32
	PageSize int32
}

// Offset returns the row offset implied by the page number, never negative.
// Page numbers below 1 address the first page.
func (p *Pagination) Offset() int32 {
	if p.PageNo <= 1 {
		return 0
	}
	return (p.PageNo - 1) * p.Limit()
}

// Limit returns the page size bounded to sane defaults.
func (p *Pagination) Limit() int32 {
	if p.PageSize <= 0 {
		return 20
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// FilterOrder carries raw filter and order-by expressions from the caller.
type FilterOrder struct {
	Filter  string
	OrderBy string
}

func (fo *FilterOrder) GetFilter() string { return fo.Filter }

func (fo *FilterOrder) GetOrderBy() string { return fo.OrderBy }
