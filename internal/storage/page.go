package storage

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is the list window asked for by a client. All ignores Page and Limit.
type PageRequest struct {
	Page  int  `form:"page"`
	Limit int  `form:"limit"`
	All   bool `form:"all"`
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Normalize clamps the request into a valid window.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	return r
}

// Paginate cuts items down to the window described by req.
func Paginate[T any](items []T, req PageRequest) Page[T] {
	total := len(items)
	if items == nil {
		items = []T{}
	}
	if req.All {
		return Page[T]{
			Items: items,
			Pagination: Pagination{
				CurrentPage:  1,
				TotalPages:   1,
				TotalItems:   total,
				ItemsPerPage: total,
			},
		}
	}
	req = req.Normalize()
	start := total
	if req.Page-1 <= total/req.Limit {
		start = min((req.Page-1)*req.Limit, total)
	}
	end := min(start+req.Limit, total)
	return Page[T]{
		Items: items[start:end],
		Pagination: Pagination{
			CurrentPage:  req.Page,
			TotalPages:   (total + req.Limit - 1) / req.Limit,
			TotalItems:   total,
			ItemsPerPage: req.Limit,
		},
	}
}
