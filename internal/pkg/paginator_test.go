package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i + 1
	}
	return s
}

func TestPaginatorNumber(t *testing.T) {
	p := NewPaginator(12, PostsPerPage)
	assert.Equal(t, 2, p.NumPages())

	cases := map[string]int{
		"":    1,
		"1":   1,
		"2":   2,
		"3":   2,
		"999": 2,
		"0":   1,
		"-4":  1,
		"abc": 1,
		"1.5": 1,
		" 2 ": 2,
	}
	for raw, want := range cases {
		assert.Equal(t, want, p.Number(raw), "raw=%q", raw)
	}
}

func TestPaginatorEmpty(t *testing.T) {
	p := NewPaginator(0, PostsPerPage)
	assert.Equal(t, 1, p.NumPages())
	assert.Equal(t, 1, p.Number("5"))

	page := Paginate([]int{}, "5", PostsPerPage)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.False(t, page.HasNext())
	assert.False(t, page.HasPrevious())
}

func TestPaginate(t *testing.T) {
	items := seq(12)

	first := Paginate(items, "", PostsPerPage)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 1, first.Number)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, 2, first.NextNumber())

	second := Paginate(items, "2", PostsPerPage)
	assert.Equal(t, []int{11, 12}, second.Items)
	assert.False(t, second.HasNext())
	assert.True(t, second.HasPrevious())
	assert.Equal(t, 1, second.PreviousNumber())
	assert.True(t, second.HasOtherPages())

	clamped := Paginate(items, "3", PostsPerPage)
	assert.Equal(t, second.Items, clamped.Items)
	assert.Equal(t, 2, clamped.Number)
	assert.Equal(t, []int{1, 2}, clamped.PageRange())
}

func TestBounds(t *testing.T) {
	p := NewPaginator(35, 10)
	off, lim := p.Bounds(4)
	assert.Equal(t, 30, off)
	assert.Equal(t, 10, lim)
}
