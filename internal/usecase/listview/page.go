package listview

// DefaultPageSize is used when a pager is created with a non-positive size.
const DefaultPageSize = 10

// Page is one fixed-size window over an ordered list. Pages are 1-indexed.
type Page[T any] struct {
	Items      []T `json:"items"`
	Index      int `json:"page"`
	Size       int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Paginate slices out the requested page. The index is clamped into
// [1, ceil(len/size)] so a view never requests an out-of-range page after
// the underlying collection shrinks.
func Paginate[T any](items []T, size, index int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := (len(items) + size - 1) / size

	if index < 1 {
		index = 1
	}
	if totalPages > 0 && index > totalPages {
		index = totalPages
	}

	start := (index - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Items:      items[start:end],
		Index:      index,
		Size:       size,
		TotalItems: len(items),
		TotalPages: totalPages,
	}
}

// Pager tracks the current page window for a list view. Changing the page
// size always snaps back to the first page.
type Pager struct {
	size  int
	index int
}

// NewPager creates a pager on page 1.
func NewPager(size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{size: size, index: 1}
}

// Size returns the page size.
func (p *Pager) Size() int { return p.size }

// Index returns the current 1-indexed page.
func (p *Pager) Index() int { return p.index }

// SetSize changes the page size and resets to page 1.
func (p *Pager) SetSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	p.size = size
	p.index = 1
}

// SetIndex moves to the requested page; the next PageOf call clamps it
// against the list it paginates.
func (p *Pager) SetIndex(index int) {
	if index < 1 {
		index = 1
	}
	p.index = index
}

// PageOf paginates items through the pager and records the clamped index, so
// a shrunk collection pulls the pager back onto a valid page.
func PageOf[T any](p *Pager, items []T) Page[T] {
	pg := Paginate(items, p.size, p.index)
	p.index = pg.Index
	return pg
}
