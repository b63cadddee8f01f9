package repository

// Pagination holds pagination parameters for listing entities.
type Pagination struct {
	PageNo   int
	PageSize int
}

func (p *Pagination) Offset() int {
	if p.PageNo <= 1 {
		return 0
	}
	return (p.PageNo - 1) * p.PageSize
}

// FilterOrder carries CEL filter and order-by expressions for list queries;
// the getters satisfy filterexpr.Query.
type FilterOrder struct {
	Filter  string
	OrderBy string
}

func (fo *FilterOrder) GetFilter() string { return fo.Filter }

func (fo *FilterOrder) GetOrderBy() string { return fo.OrderBy }
