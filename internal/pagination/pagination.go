// Package pagination slices ordered results into pages and describes them.
package pagination

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Params is a normalised page request. Build it with NewParams.
type Params struct {
	PageNumber int
	PageSize   int
}

// NewParams normalises a raw page request. Page numbers below 1 become 1,
// missing sizes take defaultSize and sizes above maxSize are capped, never rejected.
// maxSize itself never exceeds MaxPageSize.
func NewParams(pageNumber, pageSize, defaultSize, maxSize int) Params {
	if maxSize < 1 || maxSize > MaxPageSize {
		maxSize = MaxPageSize
	}
	if defaultSize < 1 || defaultSize > maxSize {
		defaultSize = min(DefaultPageSize, maxSize)
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return Params{PageNumber: pageNumber, PageSize: pageSize}
}

// Offset is the number of rows before the first row of the page
func (p Params) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

func (p Params) Limit() int {
	return p.PageSize
}

// Metadata describes a page relative to the whole filtered result
type Metadata struct {
	PageSize        int  `json:"pageSize"`
	CurrentPage     int  `json:"currentPage"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

func NewMetadata(p Params, totalItems int) Metadata {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (totalItems + p.PageSize - 1) / p.PageSize
	}
	return Metadata{
		PageSize:        p.PageSize,
		CurrentPage:     p.PageNumber,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		HasNextPage:     p.PageNumber < totalPages,
		HasPreviousPage: p.PageNumber > 1,
	}
}

// Page is one page of items plus its metadata
type Page[T any] struct {
	Items    []T      `json:"items"`
	Metadata Metadata `json:"paginationMetadata"`
}

// NewPage wraps items already cut to the page by the store
func NewPage[T any](items []T, p Params, totalItems int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Metadata: NewMetadata(p, totalItems)}
}

// Paginate cuts an in-memory ordered slice. A page past the end is empty,
// the metadata still reflects the full count.
func Paginate[T any](all []T, p Params) Page[T] {
	total := len(all)
	start := p.Offset()
	if start >= total {
		return NewPage([]T{}, p, total)
	}
	end := min(start+p.PageSize, total)
	items := make([]T, end-start)
	copy(items, all[start:end])
	return NewPage(items, p, total)
}

// Map converts the items of a page, keeping the metadata
func Map[T, U any](page Page[T], fn func(int, T) U) Page[U] {
	items := make([]U, len(page.Items))
	for i, item := range page.Items {
		items[i] = fn(i, item)
	}
	return Page[U]{Items: items, Metadata: page.Metadata}
}

// RowNumber is the stable "No." of the index-th item of a page.
// When the listing is sorted descending on that number the count runs down from totalItems.
func RowNumber(index int, p Params, totalItems int, descending bool) int {
	if descending {
		return totalItems - (index + p.PageSize*(p.PageNumber-1))
	}
	return index + p.PageSize*(p.PageNumber-1) + 1
}
