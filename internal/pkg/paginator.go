package pkg

import (
	"strconv"
	"strings"
)

// PostsPerPage is the fixed page size of every post listing.
const PostsPerPage = 10

// Paginator turns a raw page parameter into a valid page number for a
// collection of Total items. It never fails: bad input degrades to the
// nearest valid page.
type Paginator struct {
	Total   int64
	PerPage int
}

func NewPaginator(total int64, perPage int) Paginator {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	if total < 0 {
		total = 0
	}
	return Paginator{Total: total, PerPage: perPage}
}

// NumPages is at least 1, an empty collection still has an empty first page.
func (p Paginator) NumPages() int {
	if p.Total == 0 {
		return 1
	}
	per := int64(p.PerPage)
	return int((p.Total + per - 1) / per)
}

// Number clamps raw into [1, NumPages]. Missing or non-numeric input is 1.
func (p Paginator) Number(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	if last := p.NumPages(); n > last {
		return last
	}
	return n
}

// Bounds returns the offset/limit pair for page number.
func (p Paginator) Bounds(number int) (offset, limit int) {
	return (number - 1) * p.PerPage, p.PerPage
}

type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Total    int64
	PerPage  int
}

// NewPage wraps items already fetched for number.
func NewPage[T any](p Paginator, number int, items []T) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:    items,
		Number:   number,
		NumPages: p.NumPages(),
		Total:    p.Total,
		PerPage:  p.PerPage,
	}
}

// Paginate slices an in-memory, already ordered collection.
func Paginate[T any](items []T, raw string, perPage int) *Page[T] {
	p := NewPaginator(int64(len(items)), perPage)
	number := p.Number(raw)
	offset, limit := p.Bounds(number)
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	if offset > end {
		offset = end
	}
	return NewPage(p, number, items[offset:end])
}

func (p *Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p *Page[T]) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

func (p *Page[T]) PreviousNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return p.Number
}

// PageRange lists 1..NumPages for navigation links.
func (p *Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
