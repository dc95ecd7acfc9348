package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagination_Empty(t *testing.T) {
	p := NewPagination[int](1, PerPage, 0, nil)

	assert.Equal(t, 0, p.Pages())
	assert.False(t, p.HasPrev())
	assert.False(t, p.HasNext())
	assert.Nil(t, p.IterPages())
	assert.NotNil(t, p.Items)
}

func TestPagination_Pages(t *testing.T) {
	tests := []struct {
		total    int
		expected int
	}{
		{1, 1},
		{10, 1},
		{11, 2},
		{300, 30},
		{301, 31},
	}

	for _, tt := range tests {
		p := NewPagination[int](1, PerPage, tt.total, nil)
		assert.Equal(t, tt.expected, p.Pages(), "total=%d", tt.total)
	}
}

func TestPagination_PrevNext(t *testing.T) {
	p := NewPagination[int](2, PerPage, 25, nil)

	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.PrevNum())
	assert.Equal(t, 3, p.NextNum())

	last := NewPagination[int](3, PerPage, 25, nil)
	assert.False(t, last.HasNext())
	assert.Equal(t, 0, last.NextNum())
}

func TestPagination_PageBeyondRange(t *testing.T) {
	p := NewPagination[int](9, PerPage, 25, nil)

	assert.Equal(t, 3, p.Pages())
	assert.True(t, p.HasPrev())
	assert.False(t, p.HasNext())
	assert.Empty(t, p.Items)
}

func TestPagination_ClampsPage(t *testing.T) {
	p := NewPagination[int](0, 0, 5, nil)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, PerPage, p.PerPage)
}

func TestPagination_ItemNumber(t *testing.T) {
	p := NewPagination[int](2, PerPage, 25, nil)

	// Second page starts at row 11, numbered 25-10 = 15.
	assert.Equal(t, 15, p.ItemNumber(0))
	assert.Equal(t, 14, p.ItemNumber(1))
}

func TestPagination_IterPages(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		total    int
		expected []int
	}{
		{"single page", 1, 5, []int{1}},
		{"few pages", 1, 45, []int{1, 2, 3, 4, 5}},
		{"first of many", 1, 300, []int{1, 2, 3, 4, 5, 0, 29, 30}},
		{"middle", 10, 200, []int{1, 2, 0, 8, 9, 10, 11, 12, 13, 14, 0, 19, 20}},
		{"near end", 19, 200, []int{1, 2, 0, 17, 18, 19, 20}},
		{"beyond end", 50, 30, []int{1, 2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination[int](tt.page, PerPage, tt.total, nil)
			assert.Equal(t, tt.expected, p.IterPages())
		})
	}
}
