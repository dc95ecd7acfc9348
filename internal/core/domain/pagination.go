package domain

// Pagination is one page of a larger ordered result set.
type Pagination[T any] struct {
	Page    int
	PerPage int
	Total   int
	Items   []T
}

// NewPagination builds a page. page is clamped to at least 1 and perPage
// falls back to PerPage when not positive.
func NewPagination[T any](page, perPage, total int, items []T) *Pagination[T] {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = PerPage
	}
	if items == nil {
		items = []T{}
	}
	return &Pagination[T]{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Items:   items,
	}
}

// Pages is the total number of pages; 0 when there are no items.
func (p *Pagination[T]) Pages() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Offset is the row offset of the first item on this page.
func (p *Pagination[T]) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func (p *Pagination[T]) HasPrev() bool {
	return p.Page > 1
}

func (p *Pagination[T]) HasNext() bool {
	return p.Page < p.Pages()
}

// PrevNum is the previous page number, or 0 when there is none.
func (p *Pagination[T]) PrevNum() int {
	if !p.HasPrev() {
		return 0
	}
	return p.Page - 1
}

// NextNum is the next page number, or 0 when there is none.
func (p *Pagination[T]) NextNum() int {
	if !p.HasNext() {
		return 0
	}
	return p.Page + 1
}

// ItemNumber is the descending row number shown next to the i-th item of
// this page: the newest row overall is numbered Total.
func (p *Pagination[T]) ItemNumber(i int) int {
	return p.Total - p.Offset() - i
}

// IterPages returns the page numbers to render in a pager, with 0 marking a
// gap. It shows two pages at each edge, two before the current page and
// four after it.
//
// Example for page 10 of 20:
//
//	[1 2 0 8 9 10 11 12 13 14 0 19 20]
func (p *Pagination[T]) IterPages() []int {
	return iterPages(p.Page, p.Pages(), 2, 2, 4, 2)
}

func iterPages(page, pages, leftEdge, leftCurrent, rightCurrent, rightEdge int) []int {
	pagesEnd := pages + 1
	if pagesEnd == 1 {
		return nil
	}

	var out []int
	leftEnd := min(1+leftEdge, pagesEnd)
	for n := 1; n < leftEnd; n++ {
		out = append(out, n)
	}
	if leftEnd == pagesEnd {
		return out
	}

	midStart := max(leftEnd, page-leftCurrent)
	midEnd := min(page+rightCurrent+1, pagesEnd)
	if midStart-leftEnd > 0 {
		out = append(out, 0)
	}
	for n := midStart; n < midEnd; n++ {
		out = append(out, n)
	}
	if midEnd == pagesEnd {
		return out
	}

	rightStart := max(midEnd, pagesEnd-rightEdge)
	if rightStart-midEnd > 0 {
		out = append(out, 0)
	}
	for n := rightStart; n < pagesEnd; n++ {
		out = append(out, n)
	}
	return out
}
