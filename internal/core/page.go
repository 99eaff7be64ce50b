package core

// DefaultPageSize is the page size used when a caller does not pick one.
const DefaultPageSize = 20

// Page is the paginated list envelope returned by every list endpoint.
type Page[T any] struct {
	Content       []T      `json:"content"`
	Pageable      Pageable `json:"pageable"`
	Number        int      `json:"number"`
	Size          int      `json:"size"`
	TotalElements int64    `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
	First         bool     `json:"first"`
	Last          bool     `json:"last"`
}

type Pageable struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// PageInfo is the pagination metadata kept next to a loaded collection.
type PageInfo struct {
	Page          int   `json:"page" yaml:"page"`
	Size          int   `json:"size" yaml:"size"`
	TotalElements int64 `json:"totalElements" yaml:"total_elements"`
	TotalPages    int   `json:"totalPages" yaml:"total_pages"`
	First         bool  `json:"first" yaml:"first"`
	Last          bool  `json:"last" yaml:"last"`
}

// NewPage builds a consistent envelope around one slice of a larger result.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if content == nil {
		content = []T{}
	}
	return Page[T]{
		Content:       content,
		Pageable:      Pageable{PageNumber: page, PageSize: size},
		Number:        page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
		First:         page == 0,
		Last:          page+1 >= pages,
	}
}

// Info extracts the pagination metadata. The nested pageable block wins over
// the flat number/size fields when both are present.
func (p Page[T]) Info() PageInfo {
	number, size := p.Number, p.Size
	if p.Pageable.PageSize > 0 {
		number, size = p.Pageable.PageNumber, p.Pageable.PageSize
	}
	return PageInfo{
		Page:          number,
		Size:          size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
