package domain

// PageRequest is a 1-based page with a bounded limit.
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"pageSize"`
}

// NewPageRequest clamps page to >= 1 and limit to 1..maxLimit, falling back to defLimit.
func NewPageRequest(page, limit, defLimit, maxLimit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Page[T any] struct {
	Items []T
	Total int
	PageRequest
}

func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}
